package trie

import "github.com/ethereum/go-ethereum/metrics"

var commit_cnt = metrics.NewRegisteredCounter("state_root/trie/commits", nil)
var proof_cnt = metrics.NewRegisteredCounter("state_root/trie/proofs", nil)
