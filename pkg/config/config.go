// Package config holds the YAML-decodable option structs for every layer of
// the library (spec.md §6.6), with Default* constructors supplying every
// timeout and limit the spec names.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Codec holds SECS-II decode limits.
type Codec struct {
	MaxDepth        int `yaml:"max_depth"`
	MaxListItems    int `yaml:"max_list_items"`
	MaxPayloadBytes int `yaml:"max_payload_bytes"`
	MaxTotalItems   int `yaml:"max_total_items"`
	MaxTotalBytes   int `yaml:"max_total_bytes"`
}

// DefaultCodec matches secsii.DefaultLimits().
func DefaultCodec() Codec {
	return Codec{
		MaxDepth:        64,
		MaxListItems:    1 << 20,
		MaxPayloadBytes: 1<<24 - 1,
		MaxTotalItems:   1 << 20,
		MaxTotalBytes:   1 << 24,
	}
}

// SECS1 holds the serial transport's timers, retry policy and device
// identity.
type SECS1 struct {
	T1               time.Duration `yaml:"t1"`
	T2               time.Duration `yaml:"t2"`
	T3               time.Duration `yaml:"t3"`
	T4               time.Duration `yaml:"t4"`
	RetryLimit       int           `yaml:"retry_limit"`
	ExpectedDeviceID uint16        `yaml:"expected_device_id"`
	Role             string        `yaml:"role"` // "host" or "equipment"
}

// DefaultSECS1 matches secs1.DefaultConfig().
func DefaultSECS1() SECS1 {
	return SECS1{
		T1:         500 * time.Millisecond,
		T2:         10 * time.Second,
		T3:         45 * time.Second,
		T4:         45 * time.Second,
		RetryLimit: 3,
		Role:       "equipment",
	}
}

// HSMS holds the TCP session's identity, timers and reconnect policy.
type HSMS struct {
	SessionID                      uint16        `yaml:"session_id"`
	T3                             time.Duration `yaml:"t3"`
	T5                             time.Duration `yaml:"t5"`
	T6                             time.Duration `yaml:"t6"`
	T7                             time.Duration `yaml:"t7"`
	T8                             time.Duration `yaml:"t8"`
	LinktestInterval               time.Duration `yaml:"linktest_interval"`
	LinktestMaxConsecutiveFailures int           `yaml:"linktest_max_consecutive_failures"`
	AutoReconnect                  bool          `yaml:"auto_reconnect"`
	PassiveAcceptSelect            bool          `yaml:"passive_accept_select"`
	MaxPayloadBytes                int           `yaml:"max_payload_bytes"`
}

// DefaultHSMS matches hsms.DefaultConfig().
func DefaultHSMS() HSMS {
	return HSMS{
		T3:                             45 * time.Second,
		T5:                             10 * time.Second,
		T6:                             5 * time.Second,
		T7:                             10 * time.Second,
		T8:                             5 * time.Second,
		LinktestMaxConsecutiveFailures: 3,
		PassiveAcceptSelect:            true,
		MaxPayloadBytes:                16 * 1024 * 1024,
	}
}

// Protocol holds the transport-agnostic protocol session's policy.
type Protocol struct {
	T3                 time.Duration `yaml:"t3"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	MaxPendingRequests int           `yaml:"max_pending_requests"`
	DumpFlags          uint8         `yaml:"dump_flags"`
}

// DefaultProtocol matches protocol.DefaultConfig().
func DefaultProtocol() Protocol {
	return Protocol{T3: 45 * time.Second}
}

// Config is the root configuration document, decodable as one YAML file.
type Config struct {
	Codec    Codec    `yaml:"codec"`
	SECS1    SECS1    `yaml:"secs1"`
	HSMS     HSMS     `yaml:"hsms"`
	Protocol Protocol `yaml:"protocol"`
}

// Default returns a Config with every section's defaults populated.
func Default() Config {
	return Config{
		Codec:    DefaultCodec(),
		SECS1:    DefaultSECS1(),
		HSMS:     DefaultHSMS(),
		Protocol: DefaultProtocol(),
	}
}

// Load decodes a YAML document into a Config seeded with Default() values,
// so an omitted section (or field) keeps its default rather than zeroing.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
