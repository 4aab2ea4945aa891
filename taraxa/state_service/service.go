// Package state_service drives the state root ledger and the committee round
// from block persistence and peer messages.
package state_service

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/Taraxa-project/taraxa-state-root/ethdb"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/state_payload"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/state_root"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/state_validation"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/util/goroutines"
	"github.com/ethereum/go-ethereum/common"
	geth_ethdb "github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrClosed         = errors.New("state service closed")
	ErrVoteOutOfRange = errors.New("vote outside its envelope range")
)

type handler func(env *state_payload.Envelope, msg *state_payload.Message) error

// Service owns the ledger and the validation round. Every call into either
// goes through its mailbox.
type Service struct {
	cfg         Config
	log         log.Logger
	db          geth_ethdb.Database
	owns_db     bool
	ledger      *state_root.Ledger
	process     *state_validation.Process
	key         *ecdsa.PrivateKey
	broadcaster state_payload.Broadcaster
	executor    *goroutines.SingleThreadExecutor
	workers     *goroutines.GoroutineGroup
	handlers    map[state_payload.MessageType]handler
	last_vote   atomic.Value
	submitted   bool
}

// New opens the store at cfg.DatabasePath() and starts the service. signer is
// the committee key, transport_key signs envelopes; both may be nil on a
// node that only follows validated roots.
func New(cfg Config, signer state_validation.Signer, transport_key *ecdsa.PrivateKey,
	broadcaster state_payload.Broadcaster) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := ethdb.Open(cfg.DatabasePath(), cfg.Cache, cfg.Handles)
	if err != nil {
		return nil, err
	}
	ret, err := NewWithDatabase(cfg, db, signer, transport_key, broadcaster)
	if err != nil {
		db.Close()
		return nil, err
	}
	ret.owns_db = true
	return ret, nil
}

func NewWithDatabase(cfg Config, db geth_ethdb.Database, signer state_validation.Signer,
	transport_key *ecdsa.PrivateKey, broadcaster state_payload.Broadcaster) (*Service, error) {
	committees, err := cfg.EpochCommittees()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Root()
	}
	verifier := state_validation.NewWitnessVerifier(cfg.Network, committees)
	var workers *goroutines.GoroutineGroup
	if cfg.VerifyWorkers > 1 {
		workers = new(goroutines.GoroutineGroup).Init(cfg.VerifyWorkers, cfg.VerifyWorkers)
		verifier.WithWorkers(workers)
	}
	ledger, err := state_root.New(db, verifier, cfg.ledger_config(logger))
	if err != nil {
		if workers != nil {
			workers.Close()
		}
		return nil, err
	}
	self := &Service{
		cfg:         cfg,
		log:         logger.New("module", "state_service"),
		db:          db,
		ledger:      ledger,
		key:         transport_key,
		broadcaster: broadcaster,
		executor:    new(goroutines.SingleThreadExecutor).Init(cfg.MailboxSize),
		workers:     workers,
	}
	self.process = state_validation.NewProcess(cfg.Network, committees, signer, ledger,
		logger.New("module", "state_validation"))
	self.handlers = map[state_payload.MessageType]handler{
		state_payload.MessageVote:      self.on_vote,
		state_payload.MessageStateRoot: self.on_state_root,
	}
	return self, nil
}

func (self *Service) Ledger() *state_root.Ledger {
	return self.ledger
}

// LastVote is the most recent vote this node signed, or nil.
func (self *Service) LastVote() *types.Vote {
	if v, ok := self.last_vote.Load().(*types.Vote); ok {
		return v
	}
	return nil
}

func (self *Service) do(task func() error) (err error) {
	if e := self.executor.Do(func() { err = task() }); e != nil {
		return ErrClosed
	}
	return
}

// OnPersist commits a persisted block's changes and opens the signing round
// for its height. The round opens even when applying a buffered validated
// root failed after the commit, unless that root conflicts with the local one.
func (self *Service) OnPersist(height uint64, changes types.ChangeSet) error {
	return self.do(func() error {
		root, err := self.ledger.Commit(height, changes)
		if root == (common.Hash{}) || errors.Is(err, state_root.ErrConsistency) {
			return err
		}
		if err != nil {
			self.log.Warn("Failed to apply buffered state root", "index", height, "err", err)
		}
		if round_err := self.start_round(height); round_err != nil {
			return round_err
		}
		return err
	})
}

func (self *Service) start_round(height uint64) error {
	if err := self.process.Initialize(height); err != nil {
		return err
	}
	self.submitted = false
	if self.process.SelfIndex() >= 0 {
		vote, err := self.process.CreateVote()
		if err != nil {
			return err
		}
		self.last_vote.Store(vote)
		self.send_vote(vote)
	}
	return self.check_signatures()
}

// ResendVote broadcasts the current vote again. Peers that had not reached
// the height yet dropped the first copy.
func (self *Service) ResendVote() error {
	return self.do(func() error {
		vote := self.LastVote()
		if vote == nil || vote.RootIndex() != self.process.RootIndex() {
			return nil
		}
		if _, done := self.process.Finalized(); done {
			return nil
		}
		self.send_vote(vote)
		return nil
	})
}

// OnMessage handles an envelope received from a peer.
func (self *Service) OnMessage(env *state_payload.Envelope) error {
	if err := env.Verify(); err != nil {
		rejected_msg_cnt.Inc(1)
		return err
	}
	msg, err := env.Message()
	if err != nil {
		rejected_msg_cnt.Inc(1)
		return err
	}
	h, ok := self.handlers[msg.Type]
	if !ok {
		rejected_msg_cnt.Inc(1)
		return fmt.Errorf("%w: %v", ErrUnknownMessage, msg.Type)
	}
	msg_cnt.Inc(1)
	return self.do(func() error { return h(env, msg) })
}

func (self *Service) on_vote(env *state_payload.Envelope, msg *state_payload.Message) error {
	vote, err := msg.Vote()
	if err != nil {
		return err
	}
	// a vote is bound to its own index and expires once the round passes its range
	index := vote.RootIndex()
	if round := self.process.RootIndex(); !env.ValidAt(index) || (round > index && !env.ValidAt(round)) {
		rejected_msg_cnt.Inc(1)
		return fmt.Errorf("%w: index %d, range [%d, %d]", ErrVoteOutOfRange, index,
			env.ValidBlockStart, env.ValidBlockEnd)
	}
	if err := self.process.AddVote(vote); err != nil {
		self.log.Debug("Ignored state root vote", "index", vote.RootIndex(),
			"validator", vote.ValidatorIndex(), "sender", env.Sender, "err", err)
		return err
	}
	return self.check_signatures()
}

func (self *Service) on_state_root(env *state_payload.Envelope, msg *state_payload.Message) error {
	root, err := msg.StateRoot()
	if err != nil {
		return err
	}
	result, err := self.ledger.SubmitValidated(root)
	self.log.Debug("Received validated state root", "index", root.Index, "sender", env.Sender,
		"result", result, "err", err)
	return err
}

func (self *Service) check_signatures() error {
	validated, ok, err := self.process.CheckSignatures()
	if err != nil || !ok || self.submitted {
		return err
	}
	self.submitted = true
	root := validated.StateRoot()
	if _, err := self.ledger.SubmitValidated(root); err != nil {
		return err
	}
	msg, err := state_payload.NewStateRootMessage(root)
	if err != nil {
		return err
	}
	self.broadcast(msg, root.Index, math.MaxUint64)
	return nil
}

func (self *Service) send_vote(vote *types.Vote) {
	msg, err := state_payload.NewVoteMessage(vote)
	if err != nil {
		self.log.Error("Failed to encode vote", "err", err)
		return
	}
	self.broadcast(msg, vote.RootIndex(), vote.RootIndex()+self.cfg.PendingWindow)
}

func (self *Service) broadcast(msg *state_payload.Message, valid_start, valid_end uint64) {
	if self.broadcaster == nil || self.key == nil {
		return
	}
	env, err := state_payload.NewEnvelope(msg, valid_start, valid_end, self.key)
	if err == nil {
		err = self.broadcaster.Broadcast(env)
	}
	if err != nil {
		self.log.Warn("Failed to broadcast state service message", "type", msg.Type, "err", err)
		return
	}
	sent_msg_cnt.Inc(1)
}

// Close drains the mailbox and shuts the ledger down. A store opened by New
// is closed too.
func (self *Service) Close() error {
	self.executor.Close()
	self.ledger.Close()
	if self.workers != nil {
		self.workers.Close()
	}
	if self.owns_db {
		return self.db.Close()
	}
	return nil
}
