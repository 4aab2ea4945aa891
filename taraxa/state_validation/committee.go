package state_validation

import (
	"bytes"
	"fmt"

	"github.com/Taraxa-project/taraxa-state-root/taraxa/util/keccak256"
	mapset "github.com/deckarep/golang-set"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Threshold is the number of signatures a committee of n needs to tolerate
// floor((n-1)/3) faulty members.
func Threshold(n int) int {
	if n <= 0 {
		return 0
	}
	return n - (n-1)/3
}

const compressed_key_length = 33

// Committee is the ordered list of validator keys for an epoch. Keys are
// compressed secp256k1 public keys.
type Committee struct {
	keys [][]byte
	id   common.Hash
}

func NewCommittee(keys ...[]byte) (*Committee, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyCommittee
	}
	ret := &Committee{keys: make([][]byte, len(keys))}
	seen := mapset.NewSet()
	for i, key := range keys {
		if _, err := crypto.DecompressPubkey(key); err != nil {
			return nil, fmt.Errorf("validator %d: %v", i, err)
		}
		if !seen.Add(string(key)) {
			return nil, fmt.Errorf("%w: %x", ErrDuplicateValidator, key)
		}
		ret.keys[i] = common.CopyBytes(key)
	}
	ret.id = keccak256.Hash(ret.keys...)
	return ret, nil
}

func (self *Committee) Size() int {
	return len(self.keys)
}

func (self *Committee) Threshold() int {
	return Threshold(len(self.keys))
}

// ID identifies the committee by the hash of its ordered keys.
func (self *Committee) ID() common.Hash {
	return self.id
}

func (self *Committee) Key(index int) []byte {
	return self.keys[index]
}

func (self *Committee) Keys() [][]byte {
	ret := make([][]byte, len(self.keys))
	for i, k := range self.keys {
		ret[i] = common.CopyBytes(k)
	}
	return ret
}

// IndexOf returns the position of key in the committee, or -1.
func (self *Committee) IndexOf(key []byte) int {
	for i, k := range self.keys {
		if bytes.Equal(k, key) {
			return i
		}
	}
	return -1
}

// Equal reports whether keys lists the same validators in the same order.
// Keys are compared by their joint hash; every key must have the compressed
// length so the concatenation is unambiguous.
func (self *Committee) Equal(keys [][]byte) bool {
	if len(keys) != len(self.keys) {
		return false
	}
	for _, k := range keys {
		if len(k) != compressed_key_length {
			return false
		}
	}
	return keccak256.Hash(keys...) == self.id
}

type CommitteeSource interface {
	GetCommittee(height uint64) (*Committee, error)
}

// EpochCommittees maps epoch start heights to committees. The committee for a
// height is the one with the greatest start height not above it.
type EpochCommittees struct {
	epochs *treemap.Map
}

func NewEpochCommittees() *EpochCommittees {
	return &EpochCommittees{treemap.NewWith(utils.UInt64Comparator)}
}

func (self *EpochCommittees) Add(start_height uint64, committee *Committee) *EpochCommittees {
	self.epochs.Put(start_height, committee)
	return self
}

func (self *EpochCommittees) Len() int {
	return self.epochs.Size()
}

func (self *EpochCommittees) GetCommittee(height uint64) (*Committee, error) {
	start, committee := self.epochs.Floor(height)
	if start == nil {
		return nil, fmt.Errorf("%w %d", ErrNoCommittee, height)
	}
	return committee.(*Committee), nil
}
