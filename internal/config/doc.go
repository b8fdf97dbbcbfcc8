// Package config provides loading and environment overlay for the runtime's
// configuration: the coordination-service connection string, Kafka client
// timeouts, topic defaults, and the admission limiter's ceiling. It exposes
// a Default() baseline, Load for JSON files, FromEnv for environment
// overrides, and Validate; the resulting Config is passed to runtime.Options.
//
// Example:
//
//	cfg := config.Default()
//	// Optionally load from file and overlay env vars
//	if fileCfg, err := config.Load("/etc/eventcore.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	// Pass cfg into runtime.Options
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/flo", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
