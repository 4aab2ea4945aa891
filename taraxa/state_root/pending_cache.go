package state_root

import (
	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// PendingRootCache holds validated roots that arrived before the local ledger
// reached their index. Only indices inside (local, local+window] are admitted,
// which bounds the cache at window entries. Not safe for concurrent use.
type PendingRootCache struct {
	window uint64
	roots  *treemap.Map
}

func NewPendingRootCache(window uint64) *PendingRootCache {
	return &PendingRootCache{window: window, roots: treemap.NewWith(utils.UInt64Comparator)}
}

func (self *PendingRootCache) Len() int {
	return self.roots.Size()
}

// InWindow reports whether index may be buffered while the ledger stands at
// local (has_local is false before the first commit).
func (self *PendingRootCache) InWindow(index, local uint64, has_local bool) bool {
	if !has_local {
		return index < self.window
	}
	return local < index && index-local <= self.window
}

// Put keeps the first root buffered for an index.
func (self *PendingRootCache) Put(root types.WitnessedRoot) bool {
	if _, present := self.roots.Get(root.Index()); present || uint64(self.roots.Size()) >= self.window {
		return false
	}
	self.roots.Put(root.Index(), root)
	return true
}

func (self *PendingRootCache) Take(index uint64) (ret types.WitnessedRoot, ok bool) {
	v, present := self.roots.Get(index)
	if !present {
		return
	}
	self.roots.Remove(index)
	return v.(types.WitnessedRoot), true
}

// Prune drops every entry at or below index and returns how many were dropped.
func (self *PendingRootCache) Prune(index uint64) (dropped int) {
	for !self.roots.Empty() {
		min, _ := self.roots.Min()
		if min.(uint64) > index {
			break
		}
		self.roots.Remove(min)
		dropped++
	}
	return
}
