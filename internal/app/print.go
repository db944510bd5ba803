package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/state"
)

// Format selects how snapshots are printed.
type Format int

const (
	FormatTable Format = iota
	FormatJSON
)

// ParseFormat maps a --output value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatTable, fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Source is a handler whose snapshots can be printed.
type Source[T any] interface {
	Snapshot() state.Snapshot[T]
	Subscribe(fn func(version uint64)) func()
}

// Printer renders snapshots of one item type.
type Printer[T any] struct {
	Out     io.Writer
	Format  Format
	Headers []string
	Row     func(T) []string
}

type jsonSnapshot[T any] struct {
	Version uint64    `json:"version"`
	Updated time.Time `json:"updated"`
	Items   []T       `json:"items"`
	Error   string    `json:"error,omitempty"`
	Offline bool      `json:"offline,omitempty"`
}

// Print writes one snapshot.
func (p Printer[T]) Print(snap state.Snapshot[T]) error {
	if p.Format == FormatJSON {
		out := jsonSnapshot[T]{Version: snap.Version, Updated: snap.LastUpdated, Items: snap.Items}
		if out.Items == nil {
			out.Items = []T{}
		}
		if snap.LastError != nil {
			out.Error = snap.LastError.Error()
		}
		out.Offline = snap.IsOffline()
		if err := json.NewEncoder(p.Out).Encode(out); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(p.Headers...)
	for _, item := range snap.Items {
		t.Row(p.Row(item)...)
	}
	if _, err := fmt.Fprintln(p.Out, t.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if snap.LastError != nil {
		msg := fmt.Sprintf("warning: %v", snap.LastError)
		if snap.IsOffline() {
			msg += fmt.Sprintf(" (offline, %d failed polls)", snap.ConsecutiveFailures)
		}
		if _, err := fmt.Fprintln(p.Out, msg); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}
	return nil
}

// Once prints the current snapshot of src. A failed fetch with nothing to
// show is returned as an error.
func Once[T any](src Source[T], p Printer[T]) error {
	snap := src.Snapshot()
	if snap.LastError != nil && len(snap.Items) == 0 {
		return snap.LastError
	}
	return p.Print(snap)
}

// Watch prints the current snapshot and then every change until ctx is done:
// each new version, and each failed poll so warnings and offline state show
// up between commits. Changes that arrive while a print is in progress are
// coalesced.
func Watch[T any](ctx context.Context, src Source[T], p Printer[T]) error {
	changed := make(chan struct{}, 1)
	unsubscribe := src.Subscribe(func(uint64) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	last := src.Snapshot()
	if err := p.Print(last); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			snap := src.Snapshot()
			if snap.Version == last.Version && snap.ConsecutiveFailures == last.ConsecutiveFailures {
				continue
			}
			last = snap
			if err := p.Print(snap); err != nil {
				return err
			}
		}
	}
}

// LeasePrinter prints agent leases.
func LeasePrinter(w io.Writer, f Format) Printer[horde.Lease] {
	return Printer[horde.Lease]{
		Out:     w,
		Format:  f,
		Headers: []string{"ID", "NAME", "POOL", "STARTED", "FINISHED", "OUTCOME"},
		Row: func(l horde.Lease) []string {
			finished, outcome := "-", "Running"
			if l.FinishTime != nil {
				finished, outcome = stamp(*l.FinishTime), l.Outcome
			}
			return []string{l.ID, l.Name, l.PoolID, stamp(l.StartTime), finished, outcome}
		},
	}
}

// AuditPrinter prints audit log entries.
func AuditPrinter(w io.Writer, f Format) Printer[horde.AuditLogEntry] {
	return Printer[horde.AuditLogEntry]{
		Out:     w,
		Format:  f,
		Headers: []string{"TIME", "LEVEL", "MESSAGE"},
		Row: func(e horde.AuditLogEntry) []string {
			return []string{stamp(e.Time), e.Level, e.Message}
		},
	}
}

// PoolPrinter prints device pools.
func PoolPrinter(w io.Writer, f Format) Printer[horde.DevicePool] {
	return Printer[horde.DevicePool]{
		Out:     w,
		Format:  f,
		Headers: []string{"ID", "NAME", "TYPE"},
		Row: func(p horde.DevicePool) []string {
			return []string{p.ID, p.Name, p.PoolType}
		},
	}
}

// JobPrinter prints job summaries.
func JobPrinter(w io.Writer, f Format) Printer[horde.JobSummary] {
	return Printer[horde.JobSummary]{
		Out:     w,
		Format:  f,
		Headers: []string{"ID", "CHANGE", "STREAM", "NAME", "STATE", "CREATED"},
		Row: func(j horde.JobSummary) []string {
			return []string{j.ID, strconv.Itoa(j.EffectiveChange()), j.StreamID, j.Name, j.State, stamp(j.CreateTime)}
		},
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// Show prints src once, or keeps printing it when watch is set.
func Show[T any](ctx context.Context, src Source[T], p Printer[T], watch bool) error {
	if watch {
		return Watch(ctx, src, p)
	}
	return Once(src, p)
}
