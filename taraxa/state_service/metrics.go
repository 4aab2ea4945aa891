package state_service

import "github.com/ethereum/go-ethereum/metrics"

var (
	msg_cnt          = metrics.NewRegisteredCounter("state_service/messages", nil)
	rejected_msg_cnt = metrics.NewRegisteredCounter("state_service/messages/rejected", nil)
	sent_msg_cnt     = metrics.NewRegisteredCounter("state_service/messages/sent", nil)
)
