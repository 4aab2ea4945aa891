// Package state_root keeps the append-only sequence of per-height state roots:
// it commits block changes to the state trie, reconciles the local roots with
// committee-validated ones, and serves proofs against committed roots.
//
// Every mutation runs on a single mailbox goroutine. Readers work from an
// immutable View and from content-addressed trie nodes, so they never block
// a commit and never see a half-applied one.
package state_root

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/Taraxa-project/taraxa-state-root/ethdb"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/util/goroutines"
	"github.com/Taraxa-project/taraxa-state-root/trie"
	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/common"
	geth_ethdb "github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
)

// WitnessVerifier checks a committee witness against the committee in charge
// of the root's index.
type WitnessVerifier interface {
	VerifyWitness(root types.WitnessedRoot) error
}

type SubmitResult int

const (
	// SubmitStale: at or below the validated watermark, nothing to do.
	SubmitStale SubmitResult = iota
	// SubmitBuffered: ahead of the local height, held until it is reached.
	SubmitBuffered
	// SubmitApplied: matched the local root and is now validated.
	SubmitApplied
	// SubmitDropped: too far ahead to buffer.
	SubmitDropped
	// SubmitRejected: invalid witness or conflicting root hash.
	SubmitRejected
)

func (self SubmitResult) String() string {
	switch self {
	case SubmitStale:
		return "stale"
	case SubmitBuffered:
		return "buffered"
	case SubmitApplied:
		return "applied"
	case SubmitDropped:
		return "dropped"
	case SubmitRejected:
		return "rejected"
	}
	return "unknown"
}

type KeyValue struct {
	Key   []byte
	Value []byte
}

type Ledger struct {
	cfg      Config
	log      log.Logger
	db       geth_ethdb.Database
	triedb   *trie.Database
	verifier WitnessVerifier
	executor *goroutines.SingleThreadExecutor
	view     atomic.Value
	records  *lru.Cache
	proofs   *freecache.Cache

	// owned by the executor goroutine
	pending   *PendingRootCache
	conflicts map[uint64]*ConsistencyError
}

// New opens the ledger on db and restores the watermarks persisted by a
// previous run. verifier may be nil, in which case witnesses are trusted.
func New(db geth_ethdb.Database, verifier WitnessVerifier, cfg Config) (*Ledger, error) {
	cfg.sanitize()
	records, err := lru.New(cfg.RecordCache)
	if err != nil {
		return nil, err
	}
	self := &Ledger{
		cfg:       cfg,
		log:       cfg.Logger,
		db:        db,
		triedb:    trie.NewDatabase(db, cfg.TrieCacheMB),
		verifier:  verifier,
		records:   records,
		proofs:    freecache.NewCache(cfg.ProofCacheBytes),
		pending:   NewPendingRootCache(cfg.PendingWindow),
		conflicts: make(map[uint64]*ConsistencyError),
	}
	view, err := self.load_view()
	if err != nil {
		return nil, err
	}
	self.view.Store(view)
	self.executor = new(goroutines.SingleThreadExecutor).Init(cfg.MailboxSize)
	if index, ok := view.LocalIndex(); ok {
		self.log.Info("Loaded state root ledger", "local", index, "root", view.LocalRoot())
	}
	return self, nil
}

func (self *Ledger) load_view() (*View, error) {
	view := new(View)
	local, ok, err := ethdb.ReadIndex(self.db, ethdb.LocalIndexKey())
	if err != nil {
		return nil, err
	}
	if ok {
		record, err := ethdb.ReadStateRoot(self.db, local)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("missing state root record for local index %d", local)
		}
		view = view.with_local(local, record.RootHash)
	}
	validated, ok, err := ethdb.ReadIndex(self.db, ethdb.ValidatedIndexKey())
	if err != nil {
		return nil, err
	}
	if ok {
		record, err := ethdb.ReadStateRoot(self.db, validated)
		if err != nil {
			return nil, err
		}
		if record == nil || record.Witness == nil {
			return nil, fmt.Errorf("missing validated state root record for index %d", validated)
		}
		view = view.with_validated(validated, record.RootHash)
	}
	return view, nil
}

// Close stops the mailbox after the queued operations have run. The
// underlying store is left open.
func (self *Ledger) Close() {
	self.executor.Close()
}

func (self *Ledger) View() *View {
	return self.view.Load().(*View)
}

// Commit applies the block's changes on top of the local root and records
// the resulting root for height, which must directly follow the local height.
//
// A validated root buffered for height is applied right after the commit; if
// it conflicts, the commit stays durable and the *ConsistencyError is
// returned next to the new root.
func (self *Ledger) Commit(height uint64, changes types.ChangeSet) (root common.Hash, err error) {
	if e := self.executor.Do(func() { root, err = self.commit(height, changes) }); e != nil {
		return common.Hash{}, ErrClosed
	}
	return
}

// SubmitValidated hands the ledger a root carrying a committee witness.
func (self *Ledger) SubmitValidated(candidate *types.StateRoot) (result SubmitResult, err error) {
	if e := self.executor.Do(func() { result, err = self.submit(candidate) }); e != nil {
		return SubmitRejected, ErrClosed
	}
	return
}

func (self *Ledger) commit(height uint64, changes types.ChangeSet) (common.Hash, error) {
	view := self.View()
	if expected := view.next_local(); height != expected {
		return common.Hash{}, fmt.Errorf("%w: got %d, expected %d", ErrOutOfOrderCommit, height, expected)
	}
	// A fresh trie per height: a failed change leaves the previous root intact.
	state, err := trie.New(view.LocalRoot(), self.triedb)
	if err != nil {
		return common.Hash{}, err
	}
	for i, c := range changes {
		switch c.Op {
		case types.OpPut:
			err = state.Put(c.Key, c.Value)
		case types.OpDelete:
			err = state.Delete(c.Key)
		default:
			err = fmt.Errorf("unknown change op %d", c.Op)
		}
		if err != nil {
			return common.Hash{}, fmt.Errorf("change %d (%v %x): %w", i, c.Op, c.Key, err)
		}
	}
	// Trie nodes are flushed first; they stay unreachable until the record
	// batch below lands.
	root, err := state.Commit()
	if err != nil {
		return common.Hash{}, err
	}
	record := types.NewUnwitnessedRoot(height, root).StateRoot()
	batch := self.db.NewBatch()
	if err := ethdb.WriteStateRoot(batch, record); err != nil {
		return common.Hash{}, err
	}
	if err := ethdb.WriteIndex(batch, ethdb.LocalIndexKey(), height); err != nil {
		return common.Hash{}, err
	}
	if err := ethdb.WriteRootIndex(batch, root, height); err != nil {
		return common.Hash{}, err
	}
	if err := batch.Write(); err != nil {
		return common.Hash{}, fmt.Errorf("commit state root %d: %w", height, err)
	}
	self.records.Add(height, record)
	self.view.Store(view.with_local(height, root))
	local_height_gauge.Update(int64(height))
	commit_cnt.Inc(1)
	self.log.Debug("Committed local state root", "index", height, "root", root, "changes", len(changes))
	return root, self.drain_pending(height)
}

func (self *Ledger) drain_pending(local uint64) error {
	defer func() { pending_gauge.Update(int64(self.pending.Len())) }()
	if local > 0 {
		if dropped := self.pending.Prune(local - 1); dropped != 0 {
			self.log.Debug("Discarded passed pending state roots", "count", dropped, "local", local)
		}
	}
	root, ok := self.pending.Take(local)
	if !ok {
		return nil
	}
	_, err := self.apply(root)
	return err
}

func (self *Ledger) submit(candidate *types.StateRoot) (SubmitResult, error) {
	validated, ok := candidate.Witnessed()
	if !ok {
		return SubmitRejected, ErrMissingWitness
	}
	index := validated.Index()
	view := self.View()
	if validated_index, has := view.ValidatedIndex(); has && index <= validated_index {
		stale_cnt.Inc(1)
		return SubmitStale, nil
	}
	if conflict, ok := self.conflicts[index]; ok {
		return SubmitRejected, conflict
	}
	local, has_local := view.LocalIndex()
	ahead := !has_local || index > local
	if ahead && !self.pending.InWindow(index, local, has_local) {
		dropped_cnt.Inc(1)
		self.log.Debug("Dropped state root beyond pending window", "index", index, "local", local)
		return SubmitDropped, nil
	}
	if self.verifier != nil {
		if err := self.verifier.VerifyWitness(validated); err != nil {
			self.log.Warn("Rejected state root with invalid witness", "index", index, "err", err)
			return SubmitRejected, fmt.Errorf("%w: %v", ErrInvalidWitness, err)
		}
	}
	if ahead {
		if self.pending.Put(validated) {
			buffered_cnt.Inc(1)
			pending_gauge.Update(int64(self.pending.Len()))
			self.log.Debug("Buffered validated state root", "index", index, "local", local)
		}
		return SubmitBuffered, nil
	}
	return self.apply(validated)
}

func (self *Ledger) apply(validated types.WitnessedRoot) (SubmitResult, error) {
	index := validated.Index()
	record, err := self.read_record(index)
	if err != nil {
		return SubmitRejected, err
	}
	if record == nil {
		return SubmitRejected, fmt.Errorf("%w: no local root at %d", ErrUnknownRoot, index)
	}
	if record.Witness != nil {
		stale_cnt.Inc(1)
		return SubmitStale, nil
	}
	if record.RootHash != validated.RootHash() {
		conflict := &ConsistencyError{Index: index, Local: record.RootHash, Validated: validated.RootHash()}
		self.conflicts[index] = conflict
		conflict_cnt.Inc(1)
		self.log.Error("Validated state root conflicts with local state", "index", index,
			"local", record.RootHash, "validated", validated.RootHash())
		return SubmitRejected, conflict
	}
	updated := validated.StateRoot()
	batch := self.db.NewBatch()
	if err := ethdb.WriteStateRoot(batch, updated); err != nil {
		return SubmitRejected, err
	}
	if err := ethdb.WriteIndex(batch, ethdb.ValidatedIndexKey(), index); err != nil {
		return SubmitRejected, err
	}
	if err := batch.Write(); err != nil {
		return SubmitRejected, fmt.Errorf("validate state root %d: %w", index, err)
	}
	self.records.Add(index, updated)
	view := self.View().with_validated(index, validated.RootHash())
	self.view.Store(view)
	validated_height_gauge.Update(int64(index))
	validated_cnt.Inc(1)
	self.log.Info("Validated state root", "index", index, "root", validated.RootHash(),
		"signers", len(updated.Witness.Signers))
	if local, ok := view.LocalIndex(); ok {
		self.pending.Prune(local)
	}
	return SubmitApplied, nil
}

func (self *Ledger) read_record(index uint64) (*types.StateRoot, error) {
	if v, ok := self.records.Get(index); ok {
		return v.(*types.StateRoot), nil
	}
	return ethdb.ReadStateRoot(self.db, index)
}

func copy_record(record *types.StateRoot) *types.StateRoot {
	ret := *record
	ret.Witness = record.Witness.Copy()
	return &ret
}

// GetStateRoot returns the record at index, or nil if none was committed.
func (self *Ledger) GetStateRoot(index uint64) (*types.StateRoot, error) {
	if local, ok := self.View().LocalIndex(); !ok || index > local {
		return nil, nil
	}
	record, err := self.read_record(index)
	if err != nil || record == nil {
		return nil, err
	}
	return copy_record(record), nil
}

func (self *Ledger) GetLocalRoot(index uint64) (ret types.UnwitnessedRoot, ok bool) {
	record, err := self.GetStateRoot(index)
	if err != nil {
		self.log.Warn("Failed to read state root", "index", index, "err", err)
	}
	if record == nil {
		return
	}
	return record.Unwitnessed(), true
}

func (self *Ledger) GetValidatedRoot(index uint64) (ret types.WitnessedRoot, ok bool) {
	record, err := self.GetStateRoot(index)
	if err != nil {
		self.log.Warn("Failed to read state root", "index", index, "err", err)
	}
	if record == nil {
		return
	}
	return record.Witnessed()
}

func (self *Ledger) open(root common.Hash) (*trie.Trie, error) {
	if _, ok, err := ethdb.ReadRootIndex(self.db, root); err != nil {
		return nil, err
	} else if !ok && root != trie.EmptyRoot {
		return nil, fmt.Errorf("%w: %x", ErrUnknownRoot, root)
	}
	if !self.cfg.FullState && !self.View().is_current(root) {
		return nil, fmt.Errorf("%w: %x is pruned", ErrUnknownRoot, root)
	}
	ret, err := trie.New(root, self.triedb)
	if errors.Is(err, trie.ErrMissingRoot) {
		return nil, fmt.Errorf("%w: %x", ErrUnknownRoot, root)
	}
	return ret, err
}

// GenerateProof returns the trie nodes proving the value (or absence) of key
// under root.
func (self *Ledger) GenerateProof(root common.Hash, key []byte) ([][]byte, error) {
	state, err := self.open(root)
	if err != nil {
		return nil, err
	}
	cache_key := append(root.Bytes(), key...)
	if enc, err := self.proofs.Get(cache_key); err == nil {
		var proof [][]byte
		if err := rlp.DecodeBytes(enc, &proof); err == nil {
			return proof, nil
		}
	}
	proof, err := state.GetProof(key)
	if err != nil {
		return nil, err
	}
	if enc, err := rlp.EncodeToBytes(proof); err == nil {
		self.proofs.Set(cache_key, enc, 0)
	}
	return proof, nil
}

func (self *Ledger) GetState(root common.Hash, key []byte) ([]byte, error) {
	state, err := self.open(root)
	if err != nil {
		return nil, err
	}
	return state.Get(key)
}

// FindStates lists up to max entries under prefix, starting at prefix||start.
// A non-positive max means no limit.
func (self *Ledger) FindStates(root common.Hash, prefix, start []byte, max int) ([]KeyValue, error) {
	state, err := self.open(root)
	if err != nil {
		return nil, err
	}
	var ret []KeyValue
	err = state.Iterate(prefix, start, func(key, value []byte) bool {
		ret = append(ret, KeyValue{key, value})
		return max <= 0 || len(ret) < max
	})
	return ret, err
}
