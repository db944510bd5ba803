package horde

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Fetcher defines the Horde endpoints the dashboard reads.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	AgentHistory(ctx context.Context, agentID string, query HistoryQuery) ([]Lease, error)
	AgentAuditLog(ctx context.Context, agentID string, query HistoryQuery) ([]AuditLogEntry, error)
	IssueAuditLog(ctx context.Context, issueID string, query HistoryQuery) ([]AuditLogEntry, error)
	Pools(ctx context.Context) ([]DevicePool, error)
	PoolTelemetry(ctx context.Context, query HistoryQuery) ([]PoolTelemetry, error)
	DeviceTelemetry(ctx context.Context, deviceID string, query HistoryQuery) ([]DeviceTelemetry, error)
	Jobs(ctx context.Context, query JobsQuery) ([]JobSummary, error)
	JobsByID(ctx context.Context, ids []string) ([]JobSummary, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the Horde HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultServerURL = "http://127.0.0.1:13340"
	defaultUserAgent = "hordewatch/0.1"
	requestTimeout   = 15 * time.Second
)

// Count caps per endpoint family.
const (
	AuditLogCount  = 256
	HistoryCount   = 1024
	TelemetryCount = 65536
)

// NewClient builds a Client for serverURL. An empty token sends no
// Authorization header.
func NewClient(serverURL, token string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		token:     strings.TrimSpace(token),
	}, nil
}

// HistoryQuery bounds a time-windowed history request.
type HistoryQuery struct {
	MinTime time.Time
	MaxTime time.Time
	Index   int
	Count   int
}

func (q HistoryQuery) values(minKey, maxKey string) url.Values {
	values := url.Values{}
	if !q.MinTime.IsZero() {
		values.Set(minKey, q.MinTime.UTC().Format(time.RFC3339))
	}
	if !q.MaxTime.IsZero() {
		values.Set(maxKey, q.MaxTime.UTC().Format(time.RFC3339))
	}
	if q.Index > 0 {
		values.Set("index", strconv.Itoa(q.Index))
	}
	if q.Count > 0 {
		values.Set("count", strconv.Itoa(q.Count))
	}
	return values
}

// AgentHistory retrieves the leases an agent ran.
func (c *Client) AgentHistory(ctx context.Context, agentID string, query HistoryQuery) ([]Lease, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("agent id required")
	}
	rel, err := resourceURL("/api/v1/agents", agentID, "leases")
	if err != nil {
		return nil, err
	}
	rel.RawQuery = query.values("minTime", "maxTime").Encode()
	var payload []Lease
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AgentAuditLog retrieves an agent's audit log.
func (c *Client) AgentAuditLog(ctx context.Context, agentID string, query HistoryQuery) ([]AuditLogEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("agent id required")
	}
	rel, err := resourceURL("/api/v1/agents", agentID, "history")
	if err != nil {
		return nil, err
	}
	return c.auditLog(ctx, rel, query)
}

// IssueAuditLog retrieves an issue's audit log.
func (c *Client) IssueAuditLog(ctx context.Context, issueID string, query HistoryQuery) ([]AuditLogEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(issueID) == "" {
		return nil, fmt.Errorf("issue id required")
	}
	rel, err := resourceURL("/api/v1/issues", issueID, "history")
	if err != nil {
		return nil, err
	}
	query.Index = 0
	return c.auditLog(ctx, rel, query)
}

func (c *Client) auditLog(ctx context.Context, rel *url.URL, query HistoryQuery) ([]AuditLogEntry, error) {
	rel.RawQuery = query.values("minTime", "maxTime").Encode()
	var payload []AuditLogEntry
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Pools retrieves every device pool.
func (c *Client) Pools(ctx context.Context) ([]DevicePool, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []DevicePool
	if err := c.do(ctx, http.MethodGet, "/api/v2/devices/pools", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PoolTelemetry retrieves pool telemetry snapshots inside the query window.
func (c *Client) PoolTelemetry(ctx context.Context, query HistoryQuery) ([]PoolTelemetry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := query.values("minCreateTime", "maxCreateTime")
	values.Del("index")
	values.Del("count")
	rel := &url.URL{Path: "/api/v2/devices/pools/telemetry", RawQuery: values.Encode()}
	var payload []PoolTelemetry
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// DeviceTelemetry retrieves telemetry samples for one device.
func (c *Client) DeviceTelemetry(ctx context.Context, deviceID string, query HistoryQuery) ([]DeviceTelemetry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(deviceID) == "" {
		return nil, fmt.Errorf("device id required")
	}
	rel, err := resourceURL("/api/v2/devices", deviceID, "telemetry")
	if err != nil {
		return nil, err
	}
	values := query.values("minCreateTime", "maxCreateTime")
	values.Del("index")
	rel.RawQuery = values.Encode()
	var payload []DeviceTelemetry
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	for i := range payload {
		if payload[i].DeviceID == "" {
			payload[i].DeviceID = deviceID
		}
	}
	return payload, nil
}

// JobsQuery configures /api/v1/jobs list requests.
type JobsQuery struct {
	UserID           string
	IncludePreflight bool
	Index            int
	Count            int
}

// Jobs retrieves one page of jobs.
func (c *Client) Jobs(ctx context.Context, query JobsQuery) ([]JobSummary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if user := strings.TrimSpace(query.UserID); user != "" {
		values.Set("startedByUserId", user)
	}
	if query.IncludePreflight {
		values.Set("includePreflight", "true")
	}
	if query.Index > 0 {
		values.Set("index", strconv.Itoa(query.Index))
	}
	if query.Count > 0 {
		values.Set("count", strconv.Itoa(query.Count))
	}
	rel := &url.URL{Path: "/api/v1/jobs", RawQuery: values.Encode()}
	var payload []JobSummary
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// JobsByID looks up specific jobs.
func (c *Client) JobsByID(ctx context.Context, ids []string) ([]JobSummary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	values := url.Values{}
	for _, id := range ids {
		values.Add("id", id)
	}
	values.Set("count", strconv.Itoa(len(ids)))
	rel := &url.URL{Path: "/api/v1/jobs", RawQuery: values.Encode()}
	var payload []JobSummary
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// resourceURL builds prefix/{id}/suffix with id escaped as one path segment,
// so an id can never walk the request onto another endpoint.
func resourceURL(prefix, id, suffix string) (*url.URL, error) {
	if id == "." || id == ".." {
		return nil, fmt.Errorf("invalid id %q", id)
	}
	return &url.URL{
		Path:    prefix + "/" + id + "/" + suffix,
		RawPath: prefix + "/" + url.PathEscape(id) + "/" + suffix,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.Path, StatusCode: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
}

// Transient reports whether retrying on the next poll may succeed.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server_url %q: %w", serverURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
