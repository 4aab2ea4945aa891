package ethdb

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	geth_ethdb "github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/syndtr/goleveldb/leveldb"
)

const namespace = "state_root/db/"

// memorydb keeps its "not found" error unexported.
var errMemoryNotFound = func() error {
	_, err := memorydb.New().Get(nil)
	return err
}()

// Open returns the store backing the ledger: leveldb at path, or a throwaway
// in-memory store when path is empty.
func Open(path string, cache, handles int) (geth_ethdb.Database, error) {
	if path == "" {
		return rawdb.NewMemoryDatabase(), nil
	}
	return rawdb.NewLevelDBDatabase(path, cache, handles, namespace)
}

// IsNotFound reports whether err is the "missing key" error of either backend.
func IsNotFound(err error) bool {
	return err != nil && (err == leveldb.ErrNotFound || err == errMemoryNotFound)
}
