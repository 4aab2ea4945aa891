// Package state_payload defines the messages state service nodes exchange and
// the signed envelope that carries them.
package state_payload

import (
	"errors"
	"fmt"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

type MessageType byte

const (
	MessageVote MessageType = iota
	MessageStateRoot
)

func (self MessageType) String() string {
	switch self {
	case MessageVote:
		return "vote"
	case MessageStateRoot:
		return "state_root"
	}
	return fmt.Sprintf("unknown(%d)", byte(self))
}

var ErrUnexpectedMessage = errors.New("unexpected message type")

type Message struct {
	Type    MessageType
	Payload []byte
}

func NewVoteMessage(vote *types.Vote) (*Message, error) {
	enc, err := rlp.EncodeToBytes(vote)
	if err != nil {
		return nil, err
	}
	return &Message{MessageVote, enc}, nil
}

func NewStateRootMessage(root *types.StateRoot) (*Message, error) {
	enc, err := rlp.EncodeToBytes(root)
	if err != nil {
		return nil, err
	}
	return &Message{MessageStateRoot, enc}, nil
}

func (self *Message) Vote() (*types.Vote, error) {
	if self.Type != MessageVote {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMessage, self.Type)
	}
	ret := new(types.Vote)
	if err := rlp.DecodeBytes(self.Payload, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (self *Message) StateRoot() (*types.StateRoot, error) {
	if self.Type != MessageStateRoot {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMessage, self.Type)
	}
	ret := new(types.StateRoot)
	if err := rlp.DecodeBytes(self.Payload, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
