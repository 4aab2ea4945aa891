package state_root

import "github.com/ethereum/go-ethereum/metrics"

var (
	local_height_gauge     = metrics.NewRegisteredGauge("state_root/height/local", nil)
	validated_height_gauge = metrics.NewRegisteredGauge("state_root/height/validated", nil)
	pending_gauge          = metrics.NewRegisteredGauge("state_root/pending", nil)

	commit_cnt    = metrics.NewRegisteredCounter("state_root/commits", nil)
	validated_cnt = metrics.NewRegisteredCounter("state_root/validated", nil)
	stale_cnt     = metrics.NewRegisteredCounter("state_root/submit/stale", nil)
	buffered_cnt  = metrics.NewRegisteredCounter("state_root/submit/buffered", nil)
	dropped_cnt   = metrics.NewRegisteredCounter("state_root/submit/dropped", nil)
	conflict_cnt  = metrics.NewRegisteredCounter("state_root/submit/conflicts", nil)
)
