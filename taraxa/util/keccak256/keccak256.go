package keccak256

import (
	"hash"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

type hash_state interface {
	hash.Hash
	Read([]byte) (int, error)
}

var hashers = make(chan hash_state, runtime.NumCPU()*4)

func get_hasher() hash_state {
	select {
	case h := <-hashers:
		return h
	default:
		return sha3.NewLegacyKeccak256().(hash_state)
	}
}

func put_hasher(h hash_state) {
	h.Reset()
	select {
	case hashers <- h:
	default:
	}
}

// Hash returns the Keccak256 digest of the concatenation of bs.
func Hash(bs ...[]byte) (ret common.Hash) {
	h := get_hasher()
	for _, b := range bs {
		h.Write(b)
	}
	h.Read(ret[:])
	put_hasher(h)
	return
}
