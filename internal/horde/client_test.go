package horde

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:13340" {
		t.Fatalf("url = %q, want http://127.0.0.1:13340", u.String())
	}

	u, err = parseBaseURL("https://horde.example.com:8443/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesEndpointsAndEncodesQueries(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries = map[string]url.Values{}
		auth    string
		agent   string
	)
	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries[r.URL.Path] = r.URL.Query()
		auth = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v1/agents/agent-1/leases":
			_ = json.NewEncoder(w).Encode([]Lease{{ID: "l1", AgentID: "agent-1", StartTime: start}})
		case "/api/v1/agents/agent-1/history", "/api/v1/issues/42/history":
			_ = json.NewEncoder(w).Encode([]AuditLogEntry{{Time: start, Level: "Information", Message: "hello"}})
		case "/api/v2/devices/pools":
			_ = json.NewEncoder(w).Encode([]DevicePool{{ID: "p1", Name: "Consoles"}})
		case "/api/v2/devices/pools/telemetry":
			_ = json.NewEncoder(w).Encode([]PoolTelemetry{{CreateTime: start, Telemetry: map[string][]PlatformTelemetry{
				"p1": {{PlatformID: "win64", Available: []string{"d1"}}},
			}}})
		case "/api/v2/devices/d1/telemetry":
			_ = json.NewEncoder(w).Encode([]DeviceTelemetry{{CreateTime: start}})
		case "/api/v1/jobs":
			ids := r.URL.Query()["id"]
			if len(ids) == 0 {
				ids = []string{"j1"}
			}
			jobs := make([]JobSummary, 0, len(ids))
			for _, id := range ids {
				jobs = append(jobs, JobSummary{ID: id, Change: 100, State: JobRunning})
			}
			_ = json.NewEncoder(w).Encode(jobs)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	query := func(path string) url.Values {
		mu.Lock()
		defer mu.Unlock()
		return queries[path]
	}

	c, err := NewClient(server.URL, " secret ")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	window := HistoryQuery{MinTime: start, MaxTime: start.Add(time.Hour), Index: 5, Count: 10}

	leases, err := c.AgentHistory(ctx, "agent-1", window)
	if err != nil {
		t.Fatalf("AgentHistory returned error: %v", err)
	}
	if len(leases) != 1 || leases[0].ID != "l1" || !leases[0].StartTime.Equal(start) {
		t.Fatalf("AgentHistory = %#v, want lease l1", leases)
	}
	q := query("/api/v1/agents/agent-1/leases")
	if q.Get("minTime") != "2026-02-03T04:05:06Z" ||
		q.Get("maxTime") != "2026-02-03T05:05:06Z" ||
		q.Get("index") != "5" ||
		q.Get("count") != "10" {
		t.Fatalf("AgentHistory query = %v, want params encoded", q)
	}

	if _, err := c.AgentAuditLog(ctx, "agent-1", HistoryQuery{Count: AuditLogCount}); err != nil {
		t.Fatalf("AgentAuditLog returned error: %v", err)
	}
	entries, err := c.IssueAuditLog(ctx, "42", window)
	if err != nil {
		t.Fatalf("IssueAuditLog returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Fatalf("IssueAuditLog = %#v, want one entry", entries)
	}
	if q := query("/api/v1/issues/42/history"); q.Has("index") {
		t.Fatalf("IssueAuditLog query = %v, issue history is not paged", q)
	}

	pools, err := c.Pools(ctx)
	if err != nil || len(pools) != 1 || pools[0].Name != "Consoles" {
		t.Fatalf("Pools = %#v, %v; want Consoles", pools, err)
	}

	telemetry, err := c.PoolTelemetry(ctx, window)
	if err != nil {
		t.Fatalf("PoolTelemetry returned error: %v", err)
	}
	if len(telemetry) != 1 || len(telemetry[0].Telemetry["p1"]) != 1 {
		t.Fatalf("PoolTelemetry = %#v, want one snapshot for p1", telemetry)
	}
	q = query("/api/v2/devices/pools/telemetry")
	if q.Get("minCreateTime") == "" || q.Get("maxCreateTime") == "" || q.Has("count") || q.Has("index") {
		t.Fatalf("PoolTelemetry query = %v, want create-time bounds only", q)
	}

	samples, err := c.DeviceTelemetry(ctx, "d1", HistoryQuery{Count: TelemetryCount})
	if err != nil {
		t.Fatalf("DeviceTelemetry returned error: %v", err)
	}
	if len(samples) != 1 || samples[0].DeviceID != "d1" {
		t.Fatalf("DeviceTelemetry = %#v, want device id filled in", samples)
	}

	jobs, err := c.Jobs(ctx, JobsQuery{UserID: "u1", IncludePreflight: true, Index: 20, Count: 10})
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Jobs = %#v, %v; want one job", jobs, err)
	}
	q = query("/api/v1/jobs")
	if q.Get("startedByUserId") != "u1" || q.Get("includePreflight") != "true" || q.Get("index") != "20" || q.Get("count") != "10" {
		t.Fatalf("Jobs query = %v, want params encoded", q)
	}

	jobs, err = c.JobsByID(ctx, []string{"a", "b"})
	if err != nil || len(jobs) != 2 || jobs[1].ID != "b" {
		t.Fatalf("JobsByID = %#v, %v; want a and b", jobs, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want trimmed bearer token", auth)
	}
	if !strings.HasPrefix(agent, "hordewatch/") {
		t.Fatalf("User-Agent = %q, want hordewatch/*", agent)
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.AgentHistory(ctx, " ", HistoryQuery{}); err == nil {
		t.Fatalf("AgentHistory returned nil error, want error")
	}
	if _, err := c.AgentAuditLog(ctx, "", HistoryQuery{}); err == nil {
		t.Fatalf("AgentAuditLog returned nil error, want error")
	}
	if _, err := c.IssueAuditLog(ctx, "", HistoryQuery{}); err == nil {
		t.Fatalf("IssueAuditLog returned nil error, want error")
	}
	if _, err := c.DeviceTelemetry(ctx, "", HistoryQuery{}); err == nil {
		t.Fatalf("DeviceTelemetry returned nil error, want error")
	}
	jobs, err := c.JobsByID(ctx, nil)
	if err != nil || jobs != nil {
		t.Fatalf("JobsByID(nil) = %v, %v; want nil, nil", jobs, err)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/devices/pools":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/v1/jobs":
			http.Error(w, "nope", http.StatusBadGateway)
		default:
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Pools(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Pools error = %v, want decode response error", err)
	}

	_, err = c.Jobs(context.Background(), JobsQuery{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway || !statusErr.Transient() {
		t.Fatalf("Jobs error = %v, want transient status 502", err)
	}
	if !strings.Contains(err.Error(), "returned status 502") {
		t.Fatalf("Jobs error = %q, want status in message", err.Error())
	}

	_, err = c.AgentHistory(context.Background(), "a", HistoryQuery{})
	if !errors.As(err, &statusErr) || statusErr.Transient() {
		t.Fatalf("AgentHistory error = %v, want permanent status 403", err)
	}
}

func TestLease_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	finish := start.Add(90 * time.Second)

	running := Lease{StartTime: start}
	if got := running.Duration(start.Add(time.Minute)); got != time.Minute {
		t.Fatalf("running Duration = %v, want 1m", got)
	}
	done := Lease{StartTime: start, FinishTime: &finish}
	if got := done.Duration(start.Add(time.Hour)); got != 90*time.Second {
		t.Fatalf("finished Duration = %v, want 90s", got)
	}
	if got := running.Duration(start.Add(-time.Minute)); got != 0 {
		t.Fatalf("clock skew Duration = %v, want 0", got)
	}
}

func TestJobSummary_Helpers(t *testing.T) {
	j := JobSummary{Change: 10, PreflightChange: 12, State: JobComplete}
	if !j.Finished() || j.EffectiveChange() != 12 {
		t.Fatalf("Finished=%v EffectiveChange=%d, want true/12", j.Finished(), j.EffectiveChange())
	}
	j = JobSummary{Change: 10, State: JobRunning}
	if j.Finished() || j.EffectiveChange() != 10 {
		t.Fatalf("Finished=%v EffectiveChange=%d, want false/10", j.Finished(), j.EffectiveChange())
	}
}

func TestClient_EscapesIDsInPath(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.EscapedPath())
		mu.Unlock()
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := client.AgentHistory(ctx, "../../v2/x", HistoryQuery{}); err != nil {
		t.Fatalf("AgentHistory returned error: %v", err)
	}
	if _, err := client.IssueAuditLog(ctx, "42?count=1", HistoryQuery{}); err != nil {
		t.Fatalf("IssueAuditLog returned error: %v", err)
	}
	if _, err := client.DeviceTelemetry(ctx, "rack 1/d2", HistoryQuery{}); err != nil {
		t.Fatalf("DeviceTelemetry returned error: %v", err)
	}

	mu.Lock()
	got := append([]string(nil), seen...)
	mu.Unlock()
	want := []string{
		"/api/v1/agents/..%2F..%2Fv2%2Fx/leases",
		"/api/v1/issues/42%3Fcount=1/history",
		"/api/v2/devices/rack%201%2Fd2/telemetry",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("paths = %q, want %q", got, want)
	}
}

func TestClient_RejectsDotSegmentIDs(t *testing.T) {
	t.Parallel()

	client, err := NewClient("http://127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	for _, id := range []string{".", ".."} {
		if _, err := client.AgentAuditLog(context.Background(), id, HistoryQuery{}); err == nil {
			t.Fatalf("AgentAuditLog(%q) returned nil error", id)
		}
	}
}
