package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	serverrun "github.com/rzbill/flo/internal/cmd/server"
	cfgpkg "github.com/rzbill/flo/internal/config"
	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
	logpkg "github.com/rzbill/flo/pkg/log"
)

func main() {
	level := os.Getenv("EVENTCORE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "eventcore",
		Short: "eventcore runtime CLI",
		Long:  "eventcore is a single-binary event streaming runtime: a partitioned topic repository and streaming controller. This CLI manages the server and basic administrative operations.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the eventcore HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			kafkaAddr, _ := cmd.Flags().GetString("kafka")
			replicationFactor, _ := cmd.Flags().GetInt("replication-factor")
			logLevel, _ := cmd.Flags().GetString("log-level")
			if logLevel != "" {
				_ = os.Setenv("EVENTCORE_LOG_LEVEL", logLevel)
			}

			cfg := cfgpkg.Default()
			if kafkaAddr != "" {
				cfg.CoordinationAddr = kafkaAddr
			}
			if replicationFactor > 0 {
				cfg.ReplicationFactor = int16(replicationFactor)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return serverrun.Run(cmd.Context(), serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: httpAddr,
				Fsync:    pebblestore.FsyncModeAlways,
				Config:   cfg,
			})
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory for event-type metadata (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address")
	serverStartCmd.Flags().String("kafka", os.Getenv("EVENTCORE_KAFKA_ADDR"), "Comma-separated Kafka bootstrap servers")
	serverStartCmd.Flags().Int("replication-factor", 0, "Replication factor for newly created topics (default from config)")
	serverStartCmd.Flags().String("log-level", os.Getenv("EVENTCORE_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	eventTypeCmd := &cobra.Command{Use: "event-type", Short: "Event type operations"}
	eventTypeCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event type and its backing topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			partitions, _ := cmd.Flags().GetInt("partitions")
			scopes, _ := cmd.Flags().GetStringSlice("read-scope")
			body := map[string]any{"name": name, "partitions": partitions, "read_scopes": scopes}
			b, _ := json.Marshal(body)
			resp, err := http.Post(apiURL()+"/v1/event-types", "application/json", bytes.NewReader(b))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)
			fmt.Println("status:", resp.Status)
			return nil
		},
	}
	eventTypeCreateCmd.Flags().String("name", "", "Event type name")
	eventTypeCreateCmd.Flags().Int("partitions", 8, "Partition count sent with the request; the server ignores it and uses its configured default partition count")
	eventTypeCreateCmd.Flags().StringSlice("read-scope", nil, "Required read scope (repeatable)")
	eventTypeCmd.AddCommand(eventTypeCreateCmd)
	rootCmd.AddCommand(eventTypeCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("EVENTCORE_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
