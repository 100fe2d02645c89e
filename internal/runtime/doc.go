// Package runtime wires storage, config, and services into a single labeling
// instance. It exposes Open/Close, a basic health check, and accessors for the
// scheduler, reconciler, and stores used by the HTTP surface and CLI.
//
// Example:
//
//	cfg := config.Default()
//	cfg.MailboxDir = "./mail"
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
package runtime
