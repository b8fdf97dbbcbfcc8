// Package config loads the runtime's tunables: coordination-service
// connection details, Kafka client settings, and the admission limiter's
// ceiling.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// CoordinationAddr is the coordination-service (Kafka bootstrap)
	// connection string, e.g. "localhost:9092,localhost:9093".
	CoordinationAddr    string        `json:"coordinationAddr"`
	CoordinationTimeout time.Duration `json:"coordinationTimeout"`

	KafkaRequestTimeout time.Duration `json:"kafkaRequestTimeout"`
	KafkaSendTimeout    time.Duration `json:"kafkaSendTimeout"`
	KafkaPollTimeout    time.Duration `json:"kafkaPollTimeout"`

	ReplicationFactor  int16 `json:"replicationFactor"`
	DefaultPartitions  int32 `json:"defaultPartitions"`
	TopicRotationMs    int64 `json:"topicRotationMs"`
	DefaultRetentionMs int64 `json:"defaultRetentionMs"`

	// MaxConsumersPerPartition bounds concurrent consumers admitted onto a
	// single event-type/partition pair.
	MaxConsumersPerPartition int `json:"maxConsumersPerPartition"`

	// Blacklist holds CEL expressions evaluated against `client_id` and
	// `event_type` at stream admission time.
	Blacklist []string `json:"blacklist"`

	DataDir string `json:"dataDir"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		CoordinationAddr:         "localhost:9092",
		CoordinationTimeout:      10 * time.Second,
		KafkaRequestTimeout:      10 * time.Second,
		KafkaSendTimeout:         5 * time.Second,
		KafkaPollTimeout:         1 * time.Second,
		ReplicationFactor:        1,
		DefaultPartitions:        8,
		TopicRotationMs:          0,
		DefaultRetentionMs:       int64(48 * time.Hour / time.Millisecond),
		MaxConsumersPerPartition: 5,
		DataDir:                  "",
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults with environment overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		switch ext := filepath.Ext(path); ext {
		case ".json", "":
			if err := json.Unmarshal(b, &cfg); err != nil {
				return Config{}, err
			}
		default:
			return Config{}, errors.New("config: unsupported extension " + ext + "; use JSON")
		}
	}
	FromEnv(&cfg)
	return cfg, nil
}

// Validate rejects configurations that would make the runtime unable to
// start (e.g. no brokers configured).
func (c Config) Validate() error {
	if c.CoordinationAddr == "" {
		return fmt.Errorf("config: coordinationAddr must not be empty")
	}
	if c.ReplicationFactor < 1 {
		return fmt.Errorf("config: replicationFactor must be >= 1")
	}
	if c.MaxConsumersPerPartition < 1 {
		return fmt.Errorf("config: maxConsumersPerPartition must be >= 1")
	}
	return nil
}
