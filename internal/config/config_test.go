package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "localhost:9092", cfg.CoordinationAddr)
	require.EqualValues(t, 1, cfg.ReplicationFactor)
	require.EqualValues(t, 8, cfg.DefaultPartitions)
	require.Equal(t, 5, cfg.MaxConsumersPerPartition)
	require.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "eventcore.json")
	data := []byte(`{"coordinationAddr":"broker1:9092,broker2:9092","replicationFactor":3,"maxConsumersPerPartition":10}`)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "broker1:9092,broker2:9092", cfg.CoordinationAddr)
	require.EqualValues(t, 3, cfg.ReplicationFactor)
	require.Equal(t, 10, cfg.MaxConsumersPerPartition)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "eventcore.yaml")
	require.NoError(t, os.WriteFile(file, []byte("coordinationAddr: x"), 0o644))
	_, err := Load(file)
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("EVENTCORE_KAFKA_ADDR", "kafka-1:9092")
	os.Setenv("EVENTCORE_REPLICATION_FACTOR", "3")
	os.Setenv("EVENTCORE_MAX_CONSUMERS_PER_PARTITION", "9")
	os.Setenv("EVENTCORE_KAFKA_SEND_TIMEOUT_MS", "2500")
	os.Setenv("EVENTCORE_BLACKLIST", "client_id == \"bad\"; event_type == \"secret\"")
	t.Cleanup(func() {
		os.Unsetenv("EVENTCORE_KAFKA_ADDR")
		os.Unsetenv("EVENTCORE_REPLICATION_FACTOR")
		os.Unsetenv("EVENTCORE_MAX_CONSUMERS_PER_PARTITION")
		os.Unsetenv("EVENTCORE_KAFKA_SEND_TIMEOUT_MS")
		os.Unsetenv("EVENTCORE_BLACKLIST")
	})

	FromEnv(&cfg)
	require.Equal(t, "kafka-1:9092", cfg.CoordinationAddr)
	require.EqualValues(t, 3, cfg.ReplicationFactor)
	require.Equal(t, 9, cfg.MaxConsumersPerPartition)
	require.Equal(t, 2500*time.Millisecond, cfg.KafkaSendTimeout)
	require.Len(t, cfg.Blacklist, 2)
}

func TestValidateRejectsEmptyBrokerAddr(t *testing.T) {
	cfg := Default()
	cfg.CoordinationAddr = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroReplicationFactor(t *testing.T) {
	cfg := Default()
	cfg.ReplicationFactor = 0
	require.Error(t, cfg.Validate())
}
