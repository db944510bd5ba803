// Package horde provides a read-only HTTP client for the Horde build server API.
//
// # Overview
//
// The client covers the endpoints the dashboard polls: agent leases, agent
// and issue audit logs, device pools, pool and device telemetry, and jobs.
// Responses are decoded into plain structs in types.go; nothing is cached.
//
// # Client Usage
//
//	client, err := horde.NewClient("https://horde.example.com", token)
//	if err != nil {
//		return err
//	}
//
//	leases, err := client.AgentHistory(ctx, "agent-7", horde.HistoryQuery{
//		MaxTime: time.Now(),
//		Count:   horde.HistoryCount,
//	})
//
// # API Endpoints
//
//   - GET /api/v1/agents/{id}/leases: lease history of an agent
//   - GET /api/v1/agents/{id}/history: audit log of an agent
//   - GET /api/v1/issues/{id}/history: audit log of an issue
//   - GET /api/v2/devices/pools: device pools
//   - GET /api/v2/devices/pools/telemetry: pool telemetry snapshots
//   - GET /api/v2/devices/{id}/telemetry: telemetry of one device
//   - GET /api/v1/jobs: jobs by user, or by repeated id
//
// Time bounds are sent as RFC 3339 in UTC. A zero bound is omitted.
//
// # Request Handling
//
// All requests:
//   - Use the caller's context for cancellation
//   - Send Accept: application/json and User-Agent: hordewatch/0.1
//   - Send Authorization: Bearer <token> when a token is configured
//   - Time out after 15 seconds
//
// # Error Handling
//
// Non-2xx responses are returned as *StatusError. Transient reports whether
// retrying on the next poll may help (5xx and 429). Every other error is
// wrapped with fmt.Errorf and the failing step.
//
// # Testing Considerations
//
// Code that consumes the client should depend on the Fetcher interface so it
// can be faked. The client itself is tested against httptest.Server.
package horde
