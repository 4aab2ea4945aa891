package state_validation

import "github.com/ethereum/go-ethereum/metrics"

var (
	round_gauge       = metrics.NewRegisteredGauge("state_validation/round", nil)
	vote_cnt          = metrics.NewRegisteredCounter("state_validation/votes", nil)
	rejected_vote_cnt = metrics.NewRegisteredCounter("state_validation/votes/rejected", nil)
	finalized_cnt     = metrics.NewRegisteredCounter("state_validation/finalized", nil)
)
