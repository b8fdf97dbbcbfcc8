package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays EVENTCORE_* environment variables onto cfg, the way the
// teacher's streams service reads a handful of hot knobs from the
// environment without a redeploy.
func FromEnv(cfg *Config) {
	if v := os.Getenv("EVENTCORE_KAFKA_ADDR"); v != "" {
		cfg.CoordinationAddr = v
	}
	if v := os.Getenv("EVENTCORE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("EVENTCORE_REPLICATION_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReplicationFactor = int16(n)
		}
	}
	if v := os.Getenv("EVENTCORE_DEFAULT_PARTITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultPartitions = int32(n)
		}
	}
	if v := os.Getenv("EVENTCORE_TOPIC_ROTATION_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.TopicRotationMs = n
		}
	}
	if v := os.Getenv("EVENTCORE_DEFAULT_RETENTION_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.DefaultRetentionMs = n
		}
	}
	if v := os.Getenv("EVENTCORE_MAX_CONSUMERS_PER_PARTITION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConsumersPerPartition = n
		}
	}
	if v := os.Getenv("EVENTCORE_KAFKA_SEND_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KafkaSendTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("EVENTCORE_KAFKA_REQUEST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KafkaRequestTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("EVENTCORE_KAFKA_POLL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KafkaPollTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("EVENTCORE_BLACKLIST"); v != "" {
		parts := strings.Split(v, ";")
		cfg.Blacklist = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Blacklist = append(cfg.Blacklist, p)
			}
		}
	}
}
