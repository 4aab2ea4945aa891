package types

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Vote is one committee member's signature over the root at RootIndex.
// Votes are immutable, so they can be shared freely between goroutines.
type Vote struct {
	root_index      uint64
	validator_index uint32
	signature       []byte
}

type voteRLP struct {
	RootIndex      uint64
	ValidatorIndex uint32
	Signature      []byte
}

func NewVote(root_index uint64, validator_index uint32, signature []byte) *Vote {
	return &Vote{root_index, validator_index, common.CopyBytes(signature)}
}

func (self *Vote) RootIndex() uint64      { return self.root_index }
func (self *Vote) ValidatorIndex() uint32 { return self.validator_index }
func (self *Vote) Signature() []byte      { return common.CopyBytes(self.signature) }

func (self *Vote) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &voteRLP{self.root_index, self.validator_index, self.signature})
}

func (self *Vote) DecodeRLP(s *rlp.Stream) error {
	var dec voteRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	self.root_index, self.validator_index, self.signature = dec.RootIndex, dec.ValidatorIndex, dec.Signature
	return nil
}
