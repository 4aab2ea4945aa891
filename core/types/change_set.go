package types

import "github.com/ethereum/go-ethereum/common"

type ChangeOp byte

const (
	OpPut ChangeOp = iota
	OpDelete
)

func (self ChangeOp) String() string {
	switch self {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

type Change struct {
	Key   []byte
	Op    ChangeOp
	Value []byte
}

// ChangeSet is the ordered list of state mutations produced by one block.
type ChangeSet []Change

func PutChange(key, value []byte) Change {
	return Change{Key: common.CopyBytes(key), Op: OpPut, Value: common.CopyBytes(value)}
}

func DeleteChange(key []byte) Change {
	return Change{Key: common.CopyBytes(key), Op: OpDelete}
}
