package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/trie"
)

// Database buffers dirty trie nodes in memory and flushes them to the backing
// key/value store on Flush. Nodes are keyed by their hash, so a flushed node is
// never rewritten and readers of older roots are unaffected by later flushes.
type Database struct {
	db *trie.Database
}

func NewDatabase(disk ethdb.KeyValueStore, cache_mb int) *Database {
	return &Database{trie.NewDatabaseWithCache(disk, cache_mb)}
}

func (self *Database) Flush(root common.Hash) error {
	if root == EmptyRoot || root == (common.Hash{}) {
		return nil
	}
	return self.db.Commit(root, false)
}
