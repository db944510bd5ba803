package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/state"
)

// syncBuffer is a bytes.Buffer safe to read while Watch writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestOnce_Table(t *testing.T) {
	var store state.Store[horde.DevicePool]
	store.Commit([]horde.DevicePool{{ID: "p1", Name: "android", PoolType: "Automation"}})

	var out bytes.Buffer
	require.NoError(t, Once[horde.DevicePool](&store, PoolPrinter(&out, FormatTable)))

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "android")
	assert.Contains(t, out.String(), "Automation")
}

func TestOnce_FailedWithoutData(t *testing.T) {
	var store state.Store[horde.DevicePool]
	store.Fail(errors.New("connection refused"))

	var out bytes.Buffer
	err := Once[horde.DevicePool](&store, PoolPrinter(&out, FormatTable))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, out.String())
}

func TestOnce_StaleDataPrintsWarning(t *testing.T) {
	var store state.Store[horde.AuditLogEntry]
	store.Commit([]horde.AuditLogEntry{{Time: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Level: "Information", Message: "online"}})
	store.Fail(errors.New("timeout"))

	var out bytes.Buffer
	require.NoError(t, Once[horde.AuditLogEntry](&store, AuditPrinter(&out, FormatTable)))
	assert.Contains(t, out.String(), "2026-03-01T12:00:00Z")
	assert.Contains(t, out.String(), "warning: timeout")
}

func TestOnce_JSON(t *testing.T) {
	var store state.Store[horde.JobSummary]
	store.Commit([]horde.JobSummary{{ID: "j1", Change: 5, State: horde.JobRunning}})

	var out bytes.Buffer
	require.NoError(t, Once[horde.JobSummary](&store, JobPrinter(&out, FormatJSON)))

	var got jsonSnapshot[horde.JobSummary]
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, uint64(1), got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "j1", got.Items[0].ID)
	assert.Empty(t, got.Error)
}

func TestLeasePrinter_RunningLease(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := LeasePrinter(nil, FormatTable).Row(horde.Lease{ID: "l1", StartTime: start})
	assert.Equal(t, []string{"l1", "", "", "2026-03-01T12:00:00Z", "-", "Running"}, row)
}

func TestWatch_PrintsEachVersion(t *testing.T) {
	var store state.Store[horde.DevicePool]
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Show[horde.DevicePool](ctx, &store, PoolPrinter(&out, FormatJSON), true)
	}()

	// The first print shows the empty store.
	require.Eventually(t, func() bool { return strings.Count(out.String(), "\n") == 1 }, time.Second, 5*time.Millisecond)

	store.Commit([]horde.DevicePool{{ID: "p1"}})
	require.Eventually(t, func() bool { return strings.Contains(out.String(), `"p1"`) }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"items":[]`)
}

func TestWatch_PrintsFailuresBetweenCommits(t *testing.T) {
	var store state.Store[horde.DevicePool]
	store.Commit([]horde.DevicePool{{ID: "p1", Name: "android"}})

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch[horde.DevicePool](ctx, &store, PoolPrinter(&out, FormatTable))
	}()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "android") }, time.Second, 5*time.Millisecond)

	store.Fail(errors.New("connection refused"))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "warning: connection refused") }, time.Second, 5*time.Millisecond)

	store.Fail(errors.New("connection refused"))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "(offline, 2 failed polls)")
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestOnce_JSONReportsOffline(t *testing.T) {
	var store state.Store[horde.DevicePool]
	store.Commit([]horde.DevicePool{{ID: "p1"}})
	store.Fail(errors.New("timeout"))
	store.Fail(errors.New("timeout"))

	var out bytes.Buffer
	require.NoError(t, Once[horde.DevicePool](&store, PoolPrinter(&out, FormatJSON)))

	var got jsonSnapshot[horde.DevicePool]
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.True(t, got.Offline)
	assert.Equal(t, "timeout", got.Error)
}
