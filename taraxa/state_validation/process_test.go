package state_validation

import (
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/Taraxa-project/taraxa-state-root/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const test_network = 0x74746e41

type root_map map[uint64]common.Hash

func (self root_map) GetLocalRoot(index uint64) (types.UnwitnessedRoot, bool) {
	root, ok := self[index]
	if !ok {
		return types.UnwitnessedRoot{}, false
	}
	return types.NewUnwitnessedRoot(index, root), true
}

func gen_keys(t *testing.T, n int) []*ecdsa.PrivateKey {
	ret := make([]*ecdsa.PrivateKey, n)
	for i := range ret {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		ret[i] = key
	}
	return ret
}

func committee_of(t *testing.T, keys []*ecdsa.PrivateKey) *Committee {
	pubs := make([][]byte, len(keys))
	for i, k := range keys {
		pubs[i] = crypto.CompressPubkey(&k.PublicKey)
	}
	committee, err := NewCommittee(pubs...)
	require.NoError(t, err)
	return committee
}

func sign_root(t *testing.T, key *ecdsa.PrivateKey, index uint64, root common.Hash) []byte {
	sig, err := NewKeySigner(key).Sign(types.NewUnwitnessedRoot(index, root).HashData(test_network))
	require.NoError(t, err)
	return sig
}

func TestThreshold(t *testing.T) {
	assert := assert.New(t)
	for n, m := range map[int]int{1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 7: 5, 10: 7, 21: 15} {
		assert.Equal(m, Threshold(n), "n=%d", n)
	}
	assert.Equal(0, Threshold(0))
}

func TestThresholdBoundary(t *testing.T) {
	root := common.HexToHash("0x1234")
	for _, n := range []int{1, 4, 7, 10} {
		assert := assert.New(t)
		keys := gen_keys(t, n)
		committee := committee_of(t, keys)
		m := Threshold(n)
		process := NewProcess(test_network, NewEpochCommittees().Add(0, committee), nil, root_map{5: root}, nil)
		require.NoError(t, process.Initialize(5))
		assert.Equal(-1, process.SelfIndex())

		// sign from the top so the witness has to be ordered
		for i := n - 1; i > n-m; i-- {
			assert.NoError(process.AddSignature(uint32(i), sign_root(t, keys[i], 5, root)))
		}
		_, ok, err := process.CheckSignatures()
		assert.NoError(err)
		assert.False(ok, "n=%d with %d signatures", n, m-1)

		assert.NoError(process.AddSignature(uint32(n-m), sign_root(t, keys[n-m], 5, root)))
		validated, ok, err := process.CheckSignatures()
		assert.NoError(err)
		assert.True(ok, "n=%d with %d signatures", n, m)
		witness := validated.Witness()
		assert.Equal(uint64(m), witness.Threshold)
		assert.Len(witness.Signers, m)
		for i, signer := range witness.Signers {
			assert.Equal(uint64(n-m+i), signer)
		}
		assert.NoError(NewWitnessVerifier(test_network, NewEpochCommittees().Add(0, committee)).VerifyWitness(validated))
	}
}

func TestCreateVote(t *testing.T) {
	assert := assert.New(t)
	keys := gen_keys(t, 4)
	committee := committee_of(t, keys)
	roots := root_map{}
	process := NewProcess(test_network, NewEpochCommittees().Add(0, committee), NewKeySigner(keys[2]), roots, nil)

	_, err := process.CreateVote()
	assert.Equal(ErrNotInitialized, err)

	require.NoError(t, process.Initialize(7))
	assert.Equal(2, process.SelfIndex())
	_, err = process.CreateVote()
	assert.True(errors.Is(err, ErrRootNotReady))

	roots[7] = common.HexToHash("0x77")
	vote, err := process.CreateVote()
	assert.NoError(err)
	assert.Equal(uint64(7), vote.RootIndex())
	assert.Equal(uint32(2), vote.ValidatorIndex())
	again, err := process.CreateVote()
	assert.NoError(err)
	assert.Equal(vote.Signature(), again.Signature())
	assert.Equal(1, process.VoteCount())
	assert.True(VerifySignature(committee.Key(2), types.NewUnwitnessedRoot(7, roots[7]).HashData(test_network), vote.Signature()))

	outsider := NewProcess(test_network, NewEpochCommittees().Add(0, committee), NewKeySigner(gen_keys(t, 1)[0]), roots, nil)
	require.NoError(t, outsider.Initialize(7))
	assert.Equal(-1, outsider.SelfIndex())
	_, err = outsider.CreateVote()
	assert.Equal(ErrNotAValidator, err)
}

func TestAddSignatureRejections(t *testing.T) {
	assert := assert.New(t)
	keys := gen_keys(t, 4)
	root := common.HexToHash("0xaa")
	process := NewProcess(test_network, NewEpochCommittees().Add(0, committee_of(t, keys)), nil, root_map{3: root}, nil)
	require.NoError(t, process.Initialize(3))

	err := process.AddSignature(4, sign_root(t, keys[0], 3, root))
	assert.True(errors.Is(err, ErrOutOfRangeValidator))

	err = process.AddSignature(1, sign_root(t, keys[0], 3, root))
	assert.True(errors.Is(err, ErrSignatureMismatch))
	err = process.AddSignature(1, sign_root(t, keys[1], 3, common.HexToHash("0xbb")))
	assert.True(errors.Is(err, ErrSignatureMismatch))
	err = process.AddSignature(1, sign_root(t, keys[1], 4, root))
	assert.True(errors.Is(err, ErrSignatureMismatch))
	err = process.AddSignature(1, []byte{1, 2, 3})
	assert.True(errors.Is(err, ErrSignatureMismatch))
	assert.Equal(0, process.VoteCount())

	assert.NoError(process.AddSignature(1, sign_root(t, keys[1], 3, root)))
	assert.Equal(ErrDuplicateVote, process.AddSignature(1, sign_root(t, keys[1], 3, root)))
	assert.Equal(ErrDuplicateVote, process.AddSignature(1, []byte{1}))
	assert.Equal(1, process.VoteCount())

	err = process.AddVote(types.NewVote(2, 0, sign_root(t, keys[0], 2, root)))
	assert.True(errors.Is(err, ErrStaleRound))
	far := uint64(3 + EarlyVoteRounds + 1)
	err = process.AddVote(types.NewVote(far, 0, sign_root(t, keys[0], far, root)))
	assert.True(errors.Is(err, ErrRootNotReady))
	err = process.AddVote(types.NewVote(4, 4, sign_root(t, keys[0], 4, root)))
	assert.True(errors.Is(err, ErrOutOfRangeValidator))
	assert.NoError(process.AddVote(types.NewVote(3, 0, sign_root(t, keys[0], 3, root))))
	assert.Equal(2, process.VoteCount())
}

func TestSignatureNeedsLocalRoot(t *testing.T) {
	assert := assert.New(t)
	keys := gen_keys(t, 1)
	roots := root_map{}
	process := NewProcess(test_network, NewEpochCommittees().Add(0, committee_of(t, keys)), nil, roots, nil)
	require.NoError(t, process.Initialize(9))
	root := common.HexToHash("0x99")
	sig := sign_root(t, keys[0], 9, root)

	assert.True(errors.Is(process.AddSignature(0, sig), ErrRootNotReady))
	_, _, err := process.CheckSignatures()
	assert.True(errors.Is(err, ErrRootNotReady))

	roots[9] = root
	assert.NoError(process.AddSignature(0, sig))
	validated, ok, err := process.CheckSignatures()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(root, validated.RootHash())
}

func TestEndToEndFourValidators(t *testing.T) {
	assert := assert.New(t)
	keys := gen_keys(t, 4)
	committees := NewEpochCommittees().Add(0, committee_of(t, keys))
	root := common.HexToHash("0x5eed")
	roots := root_map{10: root}

	processes := make([]*Process, 4)
	votes := make([]*types.Vote, 4)
	for i := range processes {
		processes[i] = NewProcess(test_network, committees, NewKeySigner(keys[i]), roots, nil)
		require.NoError(t, processes[i].Initialize(10))
		vote, err := processes[i].CreateVote()
		require.NoError(t, err)
		votes[i] = vote
	}

	leader := processes[0]
	assert.NoError(leader.AddVote(votes[1]))
	_, ok, err := leader.CheckSignatures()
	assert.NoError(err)
	assert.False(ok)
	assert.NoError(leader.AddVote(votes[2]))
	validated, ok, err := leader.CheckSignatures()
	assert.NoError(err)
	assert.True(ok)
	witness := validated.Witness()
	assert.Equal([]uint64{0, 1, 2}, witness.Signers)
	assert.Equal([][]byte{votes[0].Signature(), votes[1].Signature(), votes[2].Signature()}, witness.Signatures)

	assert.NoError(leader.AddVote(votes[3]))
	assert.Equal(4, leader.VoteCount())
	again, ok, err := leader.CheckSignatures()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(witness, again.Witness())

	verifier := NewWitnessVerifier(test_network, committees)
	assert.NoError(verifier.VerifyWitness(validated))
	assert.Error(NewWitnessVerifier(test_network+1, committees).VerifyWitness(validated))
}

func TestReinitializeDiscardsVotes(t *testing.T) {
	assert := assert.New(t)
	old_keys, new_keys := gen_keys(t, 4), gen_keys(t, 4)
	committees := NewEpochCommittees().
		Add(0, committee_of(t, old_keys)).
		Add(100, committee_of(t, new_keys))
	roots := root_map{99: common.HexToHash("0x99"), 100: common.HexToHash("0x100")}
	process := NewProcess(test_network, committees, NewKeySigner(new_keys[1]), roots, nil)

	require.NoError(t, process.Initialize(99))
	assert.Equal(-1, process.SelfIndex())
	assert.NoError(process.AddSignature(0, sign_root(t, old_keys[0], 99, roots[99])))
	assert.NoError(process.AddSignature(1, sign_root(t, old_keys[1], 99, roots[99])))
	assert.Equal(2, process.VoteCount())

	require.NoError(t, process.Initialize(100))
	assert.Equal(0, process.VoteCount())
	assert.Equal(1, process.SelfIndex())
	assert.True(errors.Is(process.AddSignature(0, sign_root(t, old_keys[0], 100, roots[100])), ErrSignatureMismatch))
	assert.NoError(process.AddSignature(0, sign_root(t, new_keys[0], 100, roots[100])))
	_, ok := process.Finalized()
	assert.False(ok)
}

func TestEarlyVotesReplayWhenRoundStarts(t *testing.T) {
	assert := assert.New(t)
	keys := gen_keys(t, 4)
	roots := root_map{5: common.HexToHash("0x05")}
	process := NewProcess(test_network, NewEpochCommittees().Add(0, committee_of(t, keys)), nil, roots, nil)
	require.NoError(t, process.Initialize(5))

	next := common.HexToHash("0x06")
	assert.NoError(process.AddVote(types.NewVote(6, 0, sign_root(t, keys[0], 6, next))))
	assert.NoError(process.AddVote(types.NewVote(6, 1, sign_root(t, keys[1], 6, next))))
	assert.Equal(ErrDuplicateVote, process.AddVote(types.NewVote(6, 1, sign_root(t, keys[1], 6, next))))
	// signed over a different root, dropped on replay
	assert.NoError(process.AddVote(types.NewVote(6, 2, sign_root(t, keys[2], 6, common.HexToHash("0xbb")))))
	assert.NoError(process.AddVote(types.NewVote(7, 3, sign_root(t, keys[3], 7, next))))
	assert.Equal(0, process.VoteCount())

	require.NoError(t, process.Initialize(6))
	assert.Equal(0, process.VoteCount())
	roots[6] = next
	_, ok, err := process.CheckSignatures()
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(2, process.VoteCount())

	assert.NoError(process.AddVote(types.NewVote(6, 3, sign_root(t, keys[3], 6, next))))
	validated, ok, err := process.CheckSignatures()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal([]uint64{0, 1, 3}, validated.Witness().Signers)

	// skipping a round discards what was held for it
	require.NoError(t, process.Initialize(8))
	assert.Len(process.early, 0)
}
