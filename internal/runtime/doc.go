// Package runtime wires storage, config, and the Topic Repository/Streaming
// Controller into a single-process instance. It exposes Open/Close, basic
// health checks, and accessors for the collaborators the HTTP layer drives.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Ensure an event type exists, creating its backing topic on first use
//	meta, _ := rt.EnsureEventType("orders.created", []string{"orders.read"})
package runtime
