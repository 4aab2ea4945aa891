package types

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const StateRootVersion byte = 0

var ErrUnsupportedVersion = errors.New("unsupported state root version")

// UnwitnessedRoot is a locally computed state root that has not been signed
// off by the committee yet. It is never mutated after construction.
type UnwitnessedRoot struct {
	version   byte
	index     uint64
	root_hash common.Hash
}

func NewUnwitnessedRoot(index uint64, root_hash common.Hash) UnwitnessedRoot {
	return UnwitnessedRoot{version: StateRootVersion, index: index, root_hash: root_hash}
}

func (self UnwitnessedRoot) Version() byte         { return self.version }
func (self UnwitnessedRoot) Index() uint64         { return self.index }
func (self UnwitnessedRoot) RootHash() common.Hash { return self.root_hash }

// HashData is the canonical byte string committee members sign for this root.
// The network magic keeps signatures from being replayed across networks.
func (self UnwitnessedRoot) HashData(network uint32) []byte {
	enc, err := rlp.EncodeToBytes(unsignedRLP{self.version, self.index, self.root_hash})
	if err != nil {
		panic(err)
	}
	ret := make([]byte, 4, 4+len(enc))
	binary.BigEndian.PutUint32(ret, network)
	return append(ret, enc...)
}

func (self UnwitnessedRoot) Hash(network uint32) common.Hash {
	return crypto.Keccak256Hash(self.HashData(network))
}

// WithWitness finalizes the root. The receiver is left untouched.
func (self UnwitnessedRoot) WithWitness(witness *Witness) WitnessedRoot {
	return WitnessedRoot{UnwitnessedRoot: self, witness: witness.Copy()}
}

func (self UnwitnessedRoot) StateRoot() *StateRoot {
	return &StateRoot{Version: self.version, Index: self.index, RootHash: self.root_hash}
}

// WitnessedRoot is a root carrying the committee multisignature.
type WitnessedRoot struct {
	UnwitnessedRoot
	witness *Witness
}

func (self WitnessedRoot) Witness() *Witness {
	return self.witness.Copy()
}

func (self WitnessedRoot) Unwitnessed() UnwitnessedRoot {
	return self.UnwitnessedRoot
}

func (self WitnessedRoot) StateRoot() *StateRoot {
	ret := self.UnwitnessedRoot.StateRoot()
	ret.Witness = self.witness.Copy()
	return ret
}

// StateRoot is the persisted and wire representation of both root phases.
// A nil Witness means the root is only known locally.
type StateRoot struct {
	Version  byte
	Index    uint64
	RootHash common.Hash
	Witness  *Witness
}

type unsignedRLP struct {
	Version  byte
	Index    uint64
	RootHash common.Hash
}

type stateRootRLP struct {
	Version  byte
	Index    uint64
	RootHash common.Hash
	Witness  []byte
}

func (self *StateRoot) Unwitnessed() UnwitnessedRoot {
	return UnwitnessedRoot{version: self.Version, index: self.Index, root_hash: self.RootHash}
}

func (self *StateRoot) Witnessed() (ret WitnessedRoot, ok bool) {
	if self.Witness == nil {
		return
	}
	return self.Unwitnessed().WithWitness(self.Witness), true
}

func (self *StateRoot) EncodeRLP(w io.Writer) error {
	enc := stateRootRLP{Version: self.Version, Index: self.Index, RootHash: self.RootHash}
	if self.Witness != nil {
		witness_enc, err := rlp.EncodeToBytes(self.Witness)
		if err != nil {
			return err
		}
		enc.Witness = witness_enc
	}
	return rlp.Encode(w, &enc)
}

func (self *StateRoot) DecodeRLP(s *rlp.Stream) error {
	var dec stateRootRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	if dec.Version != StateRootVersion {
		return ErrUnsupportedVersion
	}
	self.Version, self.Index, self.RootHash, self.Witness = dec.Version, dec.Index, dec.RootHash, nil
	if len(dec.Witness) != 0 {
		self.Witness = new(Witness)
		if err := rlp.DecodeBytes(dec.Witness, self.Witness); err != nil {
			return err
		}
	}
	return nil
}
