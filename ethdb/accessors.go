package ethdb

import (
	"fmt"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/ethereum/go-ethereum/common"
	geth_ethdb "github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
)

func get(db geth_ethdb.KeyValueReader, key []byte) ([]byte, error) {
	enc, err := db.Get(key)
	if IsNotFound(err) {
		return nil, nil
	}
	return enc, err
}

// ReadStateRoot returns the record stored for index, or nil if there is none.
func ReadStateRoot(db geth_ethdb.KeyValueReader, index uint64) (*types.StateRoot, error) {
	enc, err := get(db, StateRootKey(index))
	if err != nil || len(enc) == 0 {
		return nil, err
	}
	ret := new(types.StateRoot)
	if err := rlp.DecodeBytes(enc, ret); err != nil {
		return nil, fmt.Errorf("corrupt state root record %d: %w", index, err)
	}
	return ret, nil
}

func WriteStateRoot(db geth_ethdb.KeyValueWriter, root *types.StateRoot) error {
	enc, err := rlp.EncodeToBytes(root)
	if err != nil {
		return err
	}
	return db.Put(StateRootKey(root.Index), enc)
}

func ReadIndex(db geth_ethdb.KeyValueReader, key []byte) (index uint64, ok bool, err error) {
	enc, err := get(db, key)
	if err != nil || enc == nil {
		return
	}
	if index, ok = DecodeIndex(enc); !ok {
		err = fmt.Errorf("corrupt index under key %x", key)
	}
	return
}

func WriteIndex(db geth_ethdb.KeyValueWriter, key []byte, index uint64) error {
	return db.Put(key, EncodeIndex(index))
}

func ReadRootIndex(db geth_ethdb.KeyValueReader, root common.Hash) (uint64, bool, error) {
	return ReadIndex(db, RootIndexKey(root))
}

func WriteRootIndex(db geth_ethdb.KeyValueWriter, root common.Hash, index uint64) error {
	return WriteIndex(db, RootIndexKey(root), index)
}
