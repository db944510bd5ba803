// Package dashboard binds the Horde endpoints to polling handlers.
//
// Each handler wraps a poll.Handler with the fetch, identity and ordering of
// one view. A Dashboard holds one instance of each so every view of a session
// reads the same data:
//
//	d := dashboard.New(dashboard.Config{Client: client, Logger: logger})
//	defer d.Close()
//
//	d.AuditLog.Set(ctx, dashboard.AgentTarget("agent-7"))
//	unsubscribe := d.AuditLog.Subscribe(func(uint64) { redraw() })
//
// Telemetry handlers keep only the configured lookback while tailing. The
// device and job handlers split their lookups into batches with poll.Batched
// and keep the batches that succeeded.
package dashboard
