package state_validation

import (
	"fmt"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/util/goroutines"
)

// WitnessVerifier checks witnessed roots received from peers against the
// committee configured for their index.
type WitnessVerifier struct {
	network    uint32
	committees CommitteeSource
	workers    *goroutines.GoroutineGroup
}

func NewWitnessVerifier(network uint32, committees CommitteeSource) *WitnessVerifier {
	return &WitnessVerifier{network: network, committees: committees}
}

// WithWorkers spreads signature checks over workers. The caller keeps
// ownership of the group.
func (self *WitnessVerifier) WithWorkers(workers *goroutines.GoroutineGroup) *WitnessVerifier {
	self.workers = workers
	return self
}

func (self *WitnessVerifier) VerifyWitness(root types.WitnessedRoot) error {
	witness := root.Witness()
	if witness == nil {
		return types.ErrMalformedWitness
	}
	if err := witness.ValidateBasic(); err != nil {
		return err
	}
	committee, err := self.committees.GetCommittee(root.Index())
	if err != nil {
		return err
	}
	if !committee.Equal(witness.Validators) {
		return fmt.Errorf("%w at index %d", ErrWitnessCommittee, root.Index())
	}
	if witness.Threshold != uint64(committee.Threshold()) {
		return fmt.Errorf("%w: threshold %d, expected %d",
			types.ErrMalformedWitness, witness.Threshold, committee.Threshold())
	}
	data := root.HashData(self.network)
	valid := make([]bool, len(witness.Signers))
	checks := make([]func(), len(witness.Signers))
	for i, signer := range witness.Signers {
		i, key := i, committee.Key(int(signer))
		checks[i] = func() { valid[i] = VerifySignature(key, data, witness.Signatures[i]) }
	}
	if self.workers != nil && len(checks) > 1 {
		self.workers.RunAll(checks...)
	} else {
		for _, check := range checks {
			check()
		}
	}
	for i, ok := range valid {
		if !ok {
			return fmt.Errorf("%w: validator %d, index %d", ErrSignatureMismatch, witness.Signers[i], root.Index())
		}
	}
	return nil
}
