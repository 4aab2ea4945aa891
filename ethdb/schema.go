package ethdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

type Column = byte

// Trie nodes live under their bare 32-byte hash, so every ledger key carries a
// one-byte column prefix and a length that differs from a node key.
const (
	COL_state_root Column = iota + 1
	COL_local_index
	COL_validated_index
	COL_root_index
)

func StateRootKey(index uint64) []byte {
	ret := make([]byte, 9)
	ret[0] = COL_state_root
	binary.BigEndian.PutUint64(ret[1:], index)
	return ret
}

func LocalIndexKey() []byte {
	return []byte{COL_local_index}
}

func ValidatedIndexKey() []byte {
	return []byte{COL_validated_index}
}

func RootIndexKey(root common.Hash) []byte {
	return append([]byte{COL_root_index}, root[:]...)
}

func EncodeIndex(index uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, index)
	return ret
}

func DecodeIndex(enc []byte) (uint64, bool) {
	if len(enc) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(enc), true
}
