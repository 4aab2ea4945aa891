package state_service

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/Taraxa-project/taraxa-state-root/taraxa/state_root"
	"github.com/Taraxa-project/taraxa-state-root/taraxa/state_validation"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v2"
)

type CommitteeConfig struct {
	StartHeight uint64 `yaml:"start_height"`
	// Validators are 0x-prefixed compressed secp256k1 public keys.
	Validators []string `yaml:"validators"`
}

type Config struct {
	// Path of the leveldb directory. Empty keeps everything in memory.
	Path            string            `yaml:"path"`
	Cache           int               `yaml:"cache"`
	Handles         int               `yaml:"handles"`
	FullState       bool              `yaml:"full_state"`
	Network         uint32            `yaml:"network"`
	PendingWindow   uint64            `yaml:"pending_window"`
	MailboxSize     uint32            `yaml:"mailbox_size"`
	TrieCacheMB     int               `yaml:"trie_cache_mb"`
	RecordCache     int               `yaml:"record_cache"`
	ProofCacheBytes int               `yaml:"proof_cache_bytes"`
	VerifyWorkers   uint32            `yaml:"verify_workers"`
	Committees      []CommitteeConfig `yaml:"committees"`

	Logger log.Logger `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Path:            "Data_MPT_{0}",
		Cache:           16,
		Handles:         16,
		PendingWindow:   state_root.DefaultConfig.PendingWindow,
		MailboxSize:     state_root.DefaultConfig.MailboxSize,
		TrieCacheMB:     state_root.DefaultConfig.TrieCacheMB,
		RecordCache:     state_root.DefaultConfig.RecordCache,
		ProofCacheBytes: state_root.DefaultConfig.ProofCacheBytes,
		VerifyWorkers:   4,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (ret Config, err error) {
	ret = DefaultConfig()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	if err = yaml.UnmarshalStrict(b, &ret); err != nil {
		return ret, fmt.Errorf("%s: %w", path, err)
	}
	return ret, ret.Validate()
}

var ErrNoCommittees = errors.New("no committees configured")

func (self *Config) Validate() error {
	if len(self.Committees) == 0 {
		return ErrNoCommittees
	}
	if self.PendingWindow == 0 {
		return errors.New("pending_window must be positive")
	}
	_, err := self.EpochCommittees()
	return err
}

func (self *Config) EpochCommittees() (*state_validation.EpochCommittees, error) {
	ret := state_validation.NewEpochCommittees()
	for i, c := range self.Committees {
		keys := make([][]byte, len(c.Validators))
		for j, v := range c.Validators {
			key, err := hexutil.Decode(v)
			if err != nil {
				return nil, fmt.Errorf("committees[%d].validators[%d]: %w", i, j, err)
			}
			keys[j] = key
		}
		committee, err := state_validation.NewCommittee(keys...)
		if err != nil {
			return nil, fmt.Errorf("committees[%d]: %w", i, err)
		}
		ret.Add(c.StartHeight, committee)
	}
	if ret.Len() != len(self.Committees) {
		return nil, errors.New("committees: duplicate start_height")
	}
	return ret, nil
}

// DatabasePath expands the "{0}" placeholder in Path with the network magic.
func (self *Config) DatabasePath() string {
	return strings.Replace(self.Path, "{0}", fmt.Sprintf("%08X", self.Network), -1)
}

func (self *Config) ledger_config(logger log.Logger) state_root.Config {
	return state_root.Config{
		FullState:       self.FullState,
		PendingWindow:   self.PendingWindow,
		MailboxSize:     self.MailboxSize,
		TrieCacheMB:     self.TrieCacheMB,
		RecordCache:     self.RecordCache,
		ProofCacheBytes: self.ProofCacheBytes,
		Logger:          logger.New("module", "state_root"),
	}
}
