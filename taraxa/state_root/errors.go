package state_root

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrOutOfOrderCommit = errors.New("out of order commit")
	ErrUnknownRoot      = errors.New("unknown state root")
	ErrMissingWitness   = errors.New("state root has no witness")
	ErrInvalidWitness   = errors.New("invalid state root witness")
	ErrConsistency      = errors.New("validated state root conflicts with local state root")
	ErrClosed           = errors.New("state root ledger closed")
)

// ConsistencyError reports a committee-validated root that disagrees with the
// locally computed one. It means a fork or a state transition bug and is
// never resolved by the ledger itself.
type ConsistencyError struct {
	Index     uint64
	Local     common.Hash
	Validated common.Hash
}

func (self *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: index %d, local %x, validated %x", ErrConsistency, self.Index, self.Local, self.Validated)
}

func (self *ConsistencyError) Unwrap() error {
	return ErrConsistency
}
