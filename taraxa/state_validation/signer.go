package state_validation

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

const signature_length = 65

// Signer produces committee signatures for the local node.
type Signer interface {
	// Sign signs the Keccak256 digest of data.
	Sign(data []byte) ([]byte, error)
	// PublicKey is the compressed secp256k1 key matched against the committee.
	PublicKey() []byte
}

type KeySigner struct {
	key *ecdsa.PrivateKey
	pub []byte
}

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key, crypto.CompressPubkey(&key.PublicKey)}
}

func (self *KeySigner) Sign(data []byte) ([]byte, error) {
	return crypto.Sign(crypto.Keccak256(data), self.key)
}

func (self *KeySigner) PublicKey() []byte {
	return self.pub
}

// VerifySignature checks a 65-byte [R || S || V] signature over the Keccak256
// digest of data against a compressed public key.
func VerifySignature(pub, data, sig []byte) bool {
	if len(sig) != signature_length {
		return false
	}
	return crypto.VerifySignature(pub, crypto.Keccak256(data), sig[:signature_length-1])
}
