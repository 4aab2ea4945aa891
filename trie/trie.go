// Package trie exposes the Merkle Patricia Trie used to commit ledger state.
package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

var (
	EmptyRoot = crypto.Keccak256Hash(rlp.EmptyString)

	ErrMissingRoot = errors.New("trie root not found")
	ErrEmptyKey    = errors.New("empty trie key")
)

type Trie struct {
	db   *Database
	trie *trie.Trie
}

// New opens the trie at root. The zero hash and EmptyRoot open an empty trie.
func New(root common.Hash, db *Database) (*Trie, error) {
	t, err := trie.New(root, db.db)
	if err != nil {
		if _, missing := err.(*trie.MissingNodeError); missing {
			return nil, fmt.Errorf("%w: %x", ErrMissingRoot, root)
		}
		return nil, err
	}
	return &Trie{db: db, trie: t}, nil
}

func (self *Trie) Get(key []byte) ([]byte, error) {
	return self.trie.TryGet(key)
}

// Put stores value under key. An empty value removes the key.
func (self *Trie) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return self.trie.TryUpdate(key, value)
}

func (self *Trie) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return self.trie.TryDelete(key)
}

func (self *Trie) RootHash() common.Hash {
	return self.trie.Hash()
}

// Commit hashes the pending mutations and writes the resulting nodes to disk.
func (self *Trie) Commit() (root common.Hash, err error) {
	if root, err = self.trie.Commit(nil); err != nil {
		return
	}
	if err = self.db.Flush(root); err == nil {
		commit_cnt.Inc(1)
	}
	return
}

// Iterate walks the leaves whose key starts with prefix, beginning at
// prefix||start, until fn returns false.
func (self *Trie) Iterate(prefix, start []byte, fn func(key, value []byte) bool) error {
	seek := append(common.CopyBytes(prefix), start...)
	it := trie.NewIterator(self.trie.NodeIterator(seek))
	for it.Next() {
		if !bytes.HasPrefix(it.Key, prefix) {
			break
		}
		if !fn(common.CopyBytes(it.Key), common.CopyBytes(it.Value)) {
			break
		}
	}
	return it.Err
}
