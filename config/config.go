// Package config loads dendrite settings from a YAML file.
//
//	external_ip: 203.0.113.7
//	timeout: 12s
//	max_concurrency: 16
//	rate_limit:
//	  rps: 50
//	  burst: 10
//	key_file: ~/.bittensor/hotkey
//	etcd:
//	  endpoints: [localhost:2379]
//	  dial_timeout: 5s
//	axons:
//	  - {ip: 10.0.0.1, port: 8091, hotkey: 5F..., weight: 2}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/0xxfu/bittensor/dendrite"
	"github.com/0xxfu/bittensor/synapse"
)

var ErrInvalid = errors.New("config: invalid")

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Etcd struct {
	Endpoints   []string      `yaml:"endpoints"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Axon is a statically configured target.
type Axon struct {
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
	IPType  int    `yaml:"ip_type"`
	Hotkey  string `yaml:"hotkey"`
	Coldkey string `yaml:"coldkey"`
	Version int    `yaml:"version"`
	Weight  *int   `yaml:"weight"` // Load balancing weight, 1 when unset
}

type Config struct {
	ExternalIP     string        `yaml:"external_ip"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	RateLimit      *RateLimit    `yaml:"rate_limit"`
	KeyFile        string        `yaml:"key_file"`
	Etcd           Etcd          `yaml:"etcd"`
	Axons          []Axon        `yaml:"axons"`
}

// Load reads and validates the file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.KeyFile = expandHome(cfg.KeyFile)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return fmt.Errorf("%w: negative timeout %s", ErrInvalid, c.Timeout)
	case c.MaxConcurrency < 0:
		return fmt.Errorf("%w: negative max_concurrency %d", ErrInvalid, c.MaxConcurrency)
	case c.RateLimit != nil && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0):
		return fmt.Errorf("%w: rate_limit needs positive rps and burst", ErrInvalid)
	}
	for i, a := range c.Axons {
		if a.IP == "" || a.Port <= 0 || a.Port > 65535 || a.Hotkey == "" {
			return fmt.Errorf("%w: axons[%d] needs ip, port and hotkey", ErrInvalid, i)
		}
	}
	return nil
}

// Options maps the file onto dendrite options.
func (c *Config) Options(logger *zap.Logger) []dendrite.Option {
	opts := []dendrite.Option{
		dendrite.WithLogger(logger),
		dendrite.WithMaxConcurrency(c.MaxConcurrency),
	}
	if c.ExternalIP != "" {
		opts = append(opts, dendrite.WithExternalIP(c.ExternalIP))
	}
	if c.Timeout > 0 {
		opts = append(opts, dendrite.WithDefaultTimeout(c.Timeout))
	}
	if c.RateLimit != nil {
		opts = append(opts, dendrite.WithRateLimit(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	return opts
}

// AxonInfos returns the configured targets.
func (c *Config) AxonInfos() []synapse.AxonInfo {
	axons := make([]synapse.AxonInfo, 0, len(c.Axons))
	for _, a := range c.Axons {
		ipType := a.IPType
		if ipType == 0 {
			ipType = 4
		}
		axons = append(axons, synapse.AxonInfo{
			Version: a.Version,
			IP:      a.IP,
			Port:    a.Port,
			IPType:  ipType,
			Hotkey:  a.Hotkey,
			Coldkey: a.Coldkey,
		})
	}
	return axons
}

// Weights returns the load balancing weights of the configured targets by hotkey.
func (c *Config) Weights() map[string]int {
	weights := make(map[string]int, len(c.Axons))
	for _, a := range c.Axons {
		if a.Weight != nil {
			weights[a.Hotkey] = *a.Weight
		}
	}
	return weights
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
