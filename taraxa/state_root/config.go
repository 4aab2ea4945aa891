package state_root

import "github.com/ethereum/go-ethereum/log"

type Config struct {
	// FullState keeps every committed root provable. Without it only the
	// current local and validated roots answer proof and state queries.
	FullState bool
	// PendingWindow is how far ahead of the local height validated roots are
	// buffered.
	PendingWindow   uint64
	MailboxSize     uint32
	TrieCacheMB     int
	RecordCache     int
	ProofCacheBytes int
	Logger          log.Logger
}

var DefaultConfig = Config{
	PendingWindow:   100,
	MailboxSize:     64,
	TrieCacheMB:     16,
	RecordCache:     1024,
	ProofCacheBytes: 4 * 1024 * 1024,
}

func (self *Config) sanitize() {
	if self.PendingWindow == 0 {
		self.PendingWindow = DefaultConfig.PendingWindow
	}
	if self.RecordCache <= 0 {
		self.RecordCache = DefaultConfig.RecordCache
	}
	if self.ProofCacheBytes <= 0 {
		self.ProofCacheBytes = DefaultConfig.ProofCacheBytes
	}
	if self.Logger == nil {
		self.Logger = log.New("module", "state_root")
	}
}
