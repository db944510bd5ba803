package horde

import "time"

// Lease mirrors an entry of /api/v1/agents/{id}/leases.
type Lease struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	AgentID    string     `json:"agentId"`
	JobID      string     `json:"jobId,omitempty"`
	BatchID    string     `json:"batchId,omitempty"`
	PoolID     string     `json:"poolId,omitempty"`
	LogID      string     `json:"logId,omitempty"`
	StartTime  time.Time  `json:"startTime"`
	FinishTime *time.Time `json:"finishTime,omitempty"`
	Executing  bool       `json:"executing"`
	Outcome    string     `json:"outcome,omitempty"`
}

// Duration returns how long the lease ran, or has been running as of now.
func (l Lease) Duration(now time.Time) time.Duration {
	end := now
	if l.FinishTime != nil {
		end = *l.FinishTime
	}
	if end.Before(l.StartTime) {
		return 0
	}
	return end.Sub(l.StartTime)
}

// AuditLogEntry is one line of an agent or issue audit log.
type AuditLogEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Format     string         `json:"format,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// DevicePool mirrors /api/v2/devices/pools.
type DevicePool struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PoolType   string   `json:"poolType"`
	ProjectIDs []string `json:"projectIds,omitempty"`
}

// PoolTelemetry is one telemetry snapshot across all pools.
type PoolTelemetry struct {
	CreateTime time.Time                      `json:"createTimeUtc"`
	Telemetry  map[string][]PlatformTelemetry `json:"telemetry"` // keyed by pool id
}

// PlatformTelemetry lists device ids per state for one platform of a pool.
type PlatformTelemetry struct {
	PlatformID  string   `json:"platformId"`
	Available   []string `json:"available,omitempty"`
	Reserved    []string `json:"reserved,omitempty"`
	Maintenance []string `json:"maintenance,omitempty"`
	Problem     []string `json:"problem,omitempty"`
	Disabled    []string `json:"disabled,omitempty"`
}

// DeviceTelemetry is one telemetry sample of a single device.
type DeviceTelemetry struct {
	DeviceID          string     `json:"deviceId"`
	CreateTime        time.Time  `json:"createTimeUtc"`
	ReservationStart  *time.Time `json:"reservationStartUtc,omitempty"`
	ReservationFinish *time.Time `json:"reservationFinishUtc,omitempty"`
	ProblemTime       *time.Time `json:"problemTimeUtc,omitempty"`
	StreamID          string     `json:"streamId,omitempty"`
	JobID             string     `json:"jobId,omitempty"`
	JobName           string     `json:"jobName,omitempty"`
	StepName          string     `json:"stepName,omitempty"`
}

// Job states reported by the server.
const (
	JobWaiting  = "Waiting"
	JobRunning  = "Running"
	JobComplete = "Complete"
)

// JobSummary mirrors an entry of /api/v1/jobs.
type JobSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	StreamID        string    `json:"streamId"`
	TemplateID      string    `json:"templateId,omitempty"`
	Change          int       `json:"change"`
	PreflightChange int       `json:"preflightChange,omitempty"`
	StartedByUserID string    `json:"startedByUserId,omitempty"`
	State           string    `json:"state"`
	CreateTime      time.Time `json:"createTime"`
	UpdateTime      time.Time `json:"updateTime"`
}

// Finished reports whether the job will no longer change.
func (j JobSummary) Finished() bool {
	return j.State == JobComplete
}

// EffectiveChange is the change a preflight was built against, or the job's
// change otherwise.
func (j JobSummary) EffectiveChange() int {
	if j.PreflightChange > 0 {
		return j.PreflightChange
	}
	return j.Change
}
