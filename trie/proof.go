package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/trie"
)

// proofList collects proof nodes in root-to-leaf order.
type proofList [][]byte

func (self *proofList) Put(key []byte, value []byte) error {
	*self = append(*self, common.CopyBytes(value))
	return nil
}

func (self *proofList) Delete(key []byte) error {
	panic("not supported")
}

// GetProof returns the encoded nodes on the path from the root to key. The
// result proves absence when the key is not in the trie.
func (self *Trie) GetProof(key []byte) ([][]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	var proof proofList
	if err := self.trie.Prove(key, 0, &proof); err != nil {
		return nil, err
	}
	proof_cnt.Inc(1)
	return proof, nil
}

// VerifyProof checks proof against root and returns the proven value, which is
// nil for a valid proof of absence.
func VerifyProof(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	db := memorydb.New()
	for _, n := range proof {
		if err := db.Put(crypto.Keccak256(n), n); err != nil {
			return nil, err
		}
	}
	value, _, err := trie.VerifyProof(root, key, db)
	return value, err
}
