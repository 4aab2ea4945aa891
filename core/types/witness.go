package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrMalformedWitness = errors.New("malformed witness")

// Witness is a threshold multisignature over a state root: Threshold
// signatures taken from the committee listed in Validators. Signers holds the
// committee indices of the signatures in ascending order.
type Witness struct {
	Threshold  uint64
	Validators [][]byte
	Signers    []uint64
	Signatures [][]byte
}

func (self *Witness) Copy() *Witness {
	if self == nil {
		return nil
	}
	ret := &Witness{
		Threshold:  self.Threshold,
		Validators: make([][]byte, len(self.Validators)),
		Signers:    append([]uint64(nil), self.Signers...),
		Signatures: make([][]byte, len(self.Signatures)),
	}
	for i, v := range self.Validators {
		ret.Validators[i] = common.CopyBytes(v)
	}
	for i, sig := range self.Signatures {
		ret.Signatures[i] = common.CopyBytes(sig)
	}
	return ret
}

// ValidateBasic checks the shape of the witness without touching signatures.
func (self *Witness) ValidateBasic() error {
	n := uint64(len(self.Validators))
	if self.Threshold == 0 || self.Threshold > n {
		return fmt.Errorf("%w: threshold %d of %d validators", ErrMalformedWitness, self.Threshold, n)
	}
	if uint64(len(self.Signers)) != self.Threshold || len(self.Signatures) != len(self.Signers) {
		return fmt.Errorf("%w: %d signers, %d signatures, threshold %d",
			ErrMalformedWitness, len(self.Signers), len(self.Signatures), self.Threshold)
	}
	for i, idx := range self.Signers {
		if idx >= n {
			return fmt.Errorf("%w: signer %d out of range", ErrMalformedWitness, idx)
		}
		if i > 0 && self.Signers[i-1] >= idx {
			return fmt.Errorf("%w: signers not strictly ascending", ErrMalformedWitness)
		}
	}
	return nil
}
