// Package state_validation runs the committee signing round that turns a
// locally computed state root into a witnessed one.
package state_validation

import (
	"fmt"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// RootSource yields the locally computed root for an index.
type RootSource interface {
	GetLocalRoot(index uint64) (types.UnwitnessedRoot, bool)
}

// EarlyVoteRounds bounds how far ahead of the current round a vote is held
// instead of rejected.
const EarlyVoteRounds = 8

// Process is the voting round for one root index. It is not safe for
// concurrent use; the owner serializes every call.
type Process struct {
	network    uint32
	committees CommitteeSource
	signer     Signer
	roots      RootSource
	log        log.Logger

	initialized bool
	root_index  uint64
	committee   *Committee
	self_index  int
	root        *types.UnwitnessedRoot
	votes       map[uint32][]byte
	finalized   *types.WitnessedRoot
	early       map[uint64]map[uint32][]byte
}

// NewProcess builds an idle round. signer may be nil on nodes that only
// observe the committee.
func NewProcess(network uint32, committees CommitteeSource, signer Signer, roots RootSource, logger log.Logger) *Process {
	if logger == nil {
		logger = log.New("module", "state_validation")
	}
	return &Process{
		network:    network,
		committees: committees,
		signer:     signer,
		roots:      roots,
		log:        logger,
		self_index: -1,
		early:      make(map[uint64]map[uint32][]byte),
	}
}

// Initialize starts the round for height with the committee in charge of it,
// discarding every vote of the previous round.
func (self *Process) Initialize(height uint64) error {
	committee, err := self.committees.GetCommittee(height)
	if err != nil {
		return err
	}
	if committee == nil || committee.Size() == 0 {
		return ErrEmptyCommittee
	}
	self.initialized = true
	self.root_index = height
	self.committee = committee
	self.self_index = -1
	if self.signer != nil {
		self.self_index = committee.IndexOf(self.signer.PublicKey())
	}
	self.root = nil
	self.votes = make(map[uint32][]byte, committee.Size())
	self.finalized = nil
	for index := range self.early {
		if index < height {
			delete(self.early, index)
		}
	}
	round_gauge.Update(int64(height))
	self.log.Debug("Initialized state root round", "index", height, "committee", committee.ID(),
		"validators", committee.Size(), "threshold", committee.Threshold(), "self", self.self_index)
	return nil
}

func (self *Process) RootIndex() uint64 {
	return self.root_index
}

// SelfIndex is the local position in the committee, or -1.
func (self *Process) SelfIndex() int {
	return self.self_index
}

func (self *Process) Committee() *Committee {
	return self.committee
}

func (self *Process) VoteCount() int {
	return len(self.votes)
}

func (self *Process) Finalized() (ret types.WitnessedRoot, ok bool) {
	if self.finalized == nil {
		return
	}
	return *self.finalized, true
}

func (self *Process) local_root() (types.UnwitnessedRoot, error) {
	if !self.initialized {
		return types.UnwitnessedRoot{}, ErrNotInitialized
	}
	if self.root == nil {
		root, ok := self.roots.GetLocalRoot(self.root_index)
		if !ok {
			return types.UnwitnessedRoot{}, fmt.Errorf("%w: index %d", ErrRootNotReady, self.root_index)
		}
		self.root = &root
		self.replay_early()
	}
	return *self.root, nil
}

// replay_early feeds the votes held for this round once its root is known.
func (self *Process) replay_early() {
	held := self.early[self.root_index]
	delete(self.early, self.root_index)
	for validator_index, sig := range held {
		if err := self.AddSignature(validator_index, sig); err != nil {
			self.log.Debug("Dropped early state root vote", "index", self.root_index,
				"validator", validator_index, "err", err)
		}
	}
}

// CreateVote signs the local root once and returns the local vote. Later
// calls return the same signature.
func (self *Process) CreateVote() (*types.Vote, error) {
	if !self.initialized {
		return nil, ErrNotInitialized
	}
	if self.self_index < 0 {
		return nil, ErrNotAValidator
	}
	root, err := self.local_root()
	if err != nil {
		return nil, err
	}
	index := uint32(self.self_index)
	if sig, ok := self.votes[index]; ok {
		return types.NewVote(self.root_index, index, sig), nil
	}
	sig, err := self.signer.Sign(root.HashData(self.network))
	if err != nil {
		return nil, err
	}
	self.votes[index] = sig
	self.log.Debug("Signed local state root", "index", self.root_index, "root", root.RootHash())
	return types.NewVote(self.root_index, index, sig), nil
}

// AddVote routes vote to AddSignature after checking it belongs to this round.
// A vote up to EarlyVoteRounds ahead is held and checked once its round
// starts.
func (self *Process) AddVote(vote *types.Vote) error {
	if !self.initialized {
		return ErrNotInitialized
	}
	switch index := vote.RootIndex(); {
	case index < self.root_index:
		return fmt.Errorf("%w: vote for %d, round %d", ErrStaleRound, index, self.root_index)
	case index > self.root_index+EarlyVoteRounds:
		return fmt.Errorf("%w: vote for %d, round %d", ErrRootNotReady, index, self.root_index)
	case index > self.root_index:
		return self.hold(vote)
	}
	return self.AddSignature(vote.ValidatorIndex(), vote.Signature())
}

func (self *Process) hold(vote *types.Vote) error {
	committee, err := self.committees.GetCommittee(vote.RootIndex())
	if err != nil {
		return err
	}
	validator_index := vote.ValidatorIndex()
	if int(validator_index) >= committee.Size() {
		rejected_vote_cnt.Inc(1)
		return fmt.Errorf("%w: %d of %d", ErrOutOfRangeValidator, validator_index, committee.Size())
	}
	held := self.early[vote.RootIndex()]
	if held == nil {
		held = make(map[uint32][]byte, committee.Size())
		self.early[vote.RootIndex()] = held
	}
	if _, ok := held[validator_index]; ok {
		return ErrDuplicateVote
	}
	held[validator_index] = append([]byte(nil), vote.Signature()...)
	self.log.Debug("Held early state root vote", "index", vote.RootIndex(), "validator", validator_index,
		"round", self.root_index)
	return nil
}

// AddSignature records a committee member's signature over the round's root.
// Signatures arriving after finalization are still checked and kept, but the
// witness already assembled is never rebuilt.
func (self *Process) AddSignature(validator_index uint32, sig []byte) error {
	if !self.initialized {
		return ErrNotInitialized
	}
	if int(validator_index) >= self.committee.Size() {
		rejected_vote_cnt.Inc(1)
		return fmt.Errorf("%w: %d of %d", ErrOutOfRangeValidator, validator_index, self.committee.Size())
	}
	if _, ok := self.votes[validator_index]; ok {
		return ErrDuplicateVote
	}
	root, err := self.local_root()
	if err != nil {
		return err
	}
	if !VerifySignature(self.committee.Key(int(validator_index)), root.HashData(self.network), sig) {
		rejected_vote_cnt.Inc(1)
		self.log.Warn("Rejected state root vote", "index", self.root_index, "validator", validator_index)
		return fmt.Errorf("%w: validator %d, index %d", ErrSignatureMismatch, validator_index, self.root_index)
	}
	self.votes[validator_index] = append([]byte(nil), sig...)
	vote_cnt.Inc(1)
	if self.finalized != nil {
		self.log.Debug("Recorded late state root vote", "index", self.root_index, "validator", validator_index)
	}
	return nil
}

// CheckSignatures assembles the witness once the threshold is reached. ok is
// false while signatures are missing.
func (self *Process) CheckSignatures() (ret types.WitnessedRoot, ok bool, err error) {
	root, err := self.local_root()
	if err != nil {
		return
	}
	if self.finalized != nil {
		return *self.finalized, true, nil
	}
	m := self.committee.Threshold()
	if len(self.votes) < m {
		return
	}
	witness := &types.Witness{
		Threshold:  uint64(m),
		Validators: self.committee.Keys(),
		Signers:    make([]uint64, 0, m),
		Signatures: make([][]byte, 0, m),
	}
	for i := 0; i < self.committee.Size() && len(witness.Signers) < m; i++ {
		if sig, present := self.votes[uint32(i)]; present {
			witness.Signers = append(witness.Signers, uint64(i))
			witness.Signatures = append(witness.Signatures, sig)
		}
	}
	finalized := root.WithWitness(witness)
	self.finalized = &finalized
	finalized_cnt.Inc(1)
	self.log.Info("State root reached threshold", "index", self.root_index, "root", root.RootHash(),
		"signers", witness.Signers)
	return finalized, true, nil
}
