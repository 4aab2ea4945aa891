package state_payload

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const Category = "StateService"

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrInvalidSender     = errors.New("envelope not signed by sender")
)

// Envelope carries a Message between nodes, signed by the sender's transport
// key. That signature authenticates the sender only; it is unrelated to the
// committee signatures inside votes and witnesses.
type Envelope struct {
	Category        string
	ValidBlockStart uint64
	ValidBlockEnd   uint64
	Sender          common.Address
	Data            []byte
	Signature       []byte
}

type unsignedEnvelope struct {
	Category        string
	ValidBlockStart uint64
	ValidBlockEnd   uint64
	Sender          common.Address
	Data            []byte
}

type Broadcaster interface {
	Broadcast(envelope *Envelope) error
}

func NewEnvelope(msg *Message, valid_start, valid_end uint64, key *ecdsa.PrivateKey) (*Envelope, error) {
	data, err := rlp.EncodeToBytes(msg)
	if err != nil {
		return nil, err
	}
	ret := &Envelope{
		Category:        Category,
		ValidBlockStart: valid_start,
		ValidBlockEnd:   valid_end,
		Sender:          crypto.PubkeyToAddress(key.PublicKey),
		Data:            data,
	}
	if ret.Signature, err = crypto.Sign(ret.SigningHash().Bytes(), key); err != nil {
		return nil, err
	}
	return ret, nil
}

func (self *Envelope) SigningHash() common.Hash {
	enc, err := rlp.EncodeToBytes(&unsignedEnvelope{
		self.Category, self.ValidBlockStart, self.ValidBlockEnd, self.Sender, self.Data,
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Verify checks the envelope shape and that Sender produced Signature.
func (self *Envelope) Verify() error {
	if self.Category != Category {
		return fmt.Errorf("%w: category %q", ErrMalformedEnvelope, self.Category)
	}
	if self.ValidBlockStart > self.ValidBlockEnd {
		return fmt.Errorf("%w: valid range [%d, %d]", ErrMalformedEnvelope, self.ValidBlockStart, self.ValidBlockEnd)
	}
	pub, err := crypto.SigToPub(self.SigningHash().Bytes(), self.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}
	if crypto.PubkeyToAddress(*pub) != self.Sender {
		return ErrInvalidSender
	}
	return nil
}

// ValidAt reports whether height falls inside the envelope's validity range.
func (self *Envelope) ValidAt(height uint64) bool {
	return self.ValidBlockStart <= height && height <= self.ValidBlockEnd
}

func (self *Envelope) Message() (*Message, error) {
	ret := new(Message)
	if err := rlp.DecodeBytes(self.Data, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return ret, nil
}

func (self *Envelope) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(self)
}

func DecodeEnvelope(b []byte) (*Envelope, error) {
	ret := new(Envelope)
	if err := rlp.DecodeBytes(b, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return ret, nil
}
