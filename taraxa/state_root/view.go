package state_root

import (
	"github.com/Taraxa-project/taraxa-state-root/trie"
	"github.com/ethereum/go-ethereum/common"
)

// View is an immutable picture of the ledger watermarks. The ledger publishes
// a fresh View after every mutation; a View already handed out never changes.
type View struct {
	local_index     uint64
	local_root      common.Hash
	has_local       bool
	validated_index uint64
	validated_root  common.Hash
	has_validated   bool
}

func (self *View) LocalIndex() (uint64, bool) {
	return self.local_index, self.has_local
}

// LocalRoot is the root at the local index, or the empty trie root before the
// first commit.
func (self *View) LocalRoot() common.Hash {
	if !self.has_local {
		return trie.EmptyRoot
	}
	return self.local_root
}

func (self *View) ValidatedIndex() (uint64, bool) {
	return self.validated_index, self.has_validated
}

func (self *View) ValidatedRoot() (common.Hash, bool) {
	return self.validated_root, self.has_validated
}

func (self *View) next_local() uint64 {
	if !self.has_local {
		return 0
	}
	return self.local_index + 1
}

func (self *View) is_current(root common.Hash) bool {
	return self.has_local && root == self.local_root || self.has_validated && root == self.validated_root
}

func (self *View) with_local(index uint64, root common.Hash) *View {
	ret := *self
	ret.local_index, ret.local_root, ret.has_local = index, root, true
	return &ret
}

func (self *View) with_validated(index uint64, root common.Hash) *View {
	ret := *self
	ret.validated_index, ret.validated_root, ret.has_validated = index, root, true
	return &ret
}
