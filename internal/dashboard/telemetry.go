package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

// PoolTelemetryHandler tracks pool telemetry snapshots, oldest first.
type PoolTelemetryHandler struct {
	*poll.Handler[int64, horde.PoolTelemetry]
}

// NewPoolTelemetryHandler builds an idle handler. While tailing it keeps the
// configured lookback; a fixed window keeps whatever the window returned.
func NewPoolTelemetryHandler(cfg Config) *PoolTelemetryHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	lookback := cfg.Lookback
	return &PoolTelemetryHandler{
		Handler: poll.NewHandler(poll.Options[int64, horde.PoolTelemetry]{
			Name: "pool_telemetry",
			Fetch: func(ctx context.Context, q poll.Query[int64]) ([]horde.PoolTelemetry, error) {
				return client.PoolTelemetry(ctx, lookbackQuery(q, lookback))
			},
			Key: func(t horde.PoolTelemetry) int64 { return t.CreateTime.UnixNano() },
			Less: func(a, b horde.PoolTelemetry) bool {
				return a.CreateTime.Before(b.CreateTime)
			},
			Keep: func(t horde.PoolTelemetry, q poll.Query[int64]) bool {
				return withinLookback(t.CreateTime, q, lookback)
			},
			Interval: cfg.Intervals.PoolTelemetry,
			Count:    horde.TelemetryCount,
			Clock:    cfg.Clock,
			Logger:   cfg.Logger,
			Metrics:  cfg.Metrics,
		}),
	}
}

// Series aggregates the accumulated snapshots into bucket-wide averages.
func (h *PoolTelemetryHandler) Series(bucket time.Duration) []PoolSeries {
	return AggregateTelemetry(h.Snapshot().Items, bucket)
}

// PoolSeries is the chart data of one pool platform.
type PoolSeries struct {
	PoolID     string
	PlatformID string
	Points     []TelemetryPoint
}

// TelemetryPoint holds average device counts per state over one bucket.
type TelemetryPoint struct {
	Time        time.Time
	Samples     int
	Available   float64
	Reserved    float64
	Maintenance float64
	Problem     float64
	Disabled    float64
}

// Total is the average number of devices seen in the bucket.
func (p TelemetryPoint) Total() float64 {
	return p.Available + p.Reserved + p.Maintenance + p.Problem + p.Disabled
}

// AggregateTelemetry groups snapshots by pool and platform and averages them
// over buckets of the given width. Fetched snapshots are not modified.
func AggregateTelemetry(snapshots []horde.PoolTelemetry, bucket time.Duration) []PoolSeries {
	if bucket <= 0 {
		bucket = time.Minute
	}
	type seriesKey struct{ pool, platform string }
	type pointKey struct {
		series seriesKey
		at     int64
	}

	sums := map[pointKey]*TelemetryPoint{}
	for _, snap := range snapshots {
		at := snap.CreateTime.Truncate(bucket)
		for poolID, platforms := range snap.Telemetry {
			for _, p := range platforms {
				k := pointKey{seriesKey{poolID, p.PlatformID}, at.UnixNano()}
				pt := sums[k]
				if pt == nil {
					pt = &TelemetryPoint{Time: at}
					sums[k] = pt
				}
				pt.Samples++
				pt.Available += float64(len(p.Available))
				pt.Reserved += float64(len(p.Reserved))
				pt.Maintenance += float64(len(p.Maintenance))
				pt.Problem += float64(len(p.Problem))
				pt.Disabled += float64(len(p.Disabled))
			}
		}
	}

	bySeries := map[seriesKey][]TelemetryPoint{}
	for k, pt := range sums {
		n := float64(pt.Samples)
		pt.Available /= n
		pt.Reserved /= n
		pt.Maintenance /= n
		pt.Problem /= n
		pt.Disabled /= n
		bySeries[k.series] = append(bySeries[k.series], *pt)
	}

	series := make([]PoolSeries, 0, len(bySeries))
	for k, points := range bySeries {
		sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
		series = append(series, PoolSeries{PoolID: k.pool, PlatformID: k.platform, Points: points})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].PoolID != series[j].PoolID {
			return series[i].PoolID < series[j].PoolID
		}
		return series[i].PlatformID < series[j].PlatformID
	})
	return series
}

// DeviceTelemetryHandler tracks telemetry for a set of devices. The devices
// are fetched in batches so a large selection does not flood the server.
type DeviceTelemetryHandler struct {
	*poll.Handler[string, horde.DeviceTelemetry]
}

// NewDeviceTelemetryHandler builds an idle handler; SetDevices selects the
// devices.
func NewDeviceTelemetryHandler(cfg Config) *DeviceTelemetryHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	logger := cfg.Logger
	batchSize := cfg.BatchSize
	lookback := cfg.Lookback
	return &DeviceTelemetryHandler{
		Handler: poll.NewHandler(poll.Options[string, horde.DeviceTelemetry]{
			Name: "device_telemetry",
			Fetch: func(ctx context.Context, q poll.Query[string]) ([]horde.DeviceTelemetry, error) {
				devices := splitDevices(q.Target)
				hq := lookbackQuery(q, lookback)
				items, err := poll.Batched(ctx, devices, batchSize, func(ctx context.Context, id string) ([]horde.DeviceTelemetry, error) {
					return client.DeviceTelemetry(ctx, id, hq)
				})
				if err != nil {
					if len(items) == 0 {
						return nil, err
					}
					logger.Warn("device telemetry partially failed",
						zap.Int("devices", len(devices)),
						zap.Int("samples", len(items)),
						zap.Error(err))
				}
				return items, nil
			},
			Key: deviceSampleKey,
			Less: func(a, b horde.DeviceTelemetry) bool {
				if !a.CreateTime.Equal(b.CreateTime) {
					return a.CreateTime.After(b.CreateTime)
				}
				return a.DeviceID < b.DeviceID
			},
			Keep: func(t horde.DeviceTelemetry, q poll.Query[string]) bool {
				return withinLookback(t.CreateTime, q, lookback)
			},
			Interval:    cfg.Intervals.PoolTelemetry,
			Count:       horde.TelemetryCount,
			Clock:       cfg.Clock,
			Logger:      logger,
			Metrics:     cfg.Metrics,
			NeedsTarget: true,
		}),
	}
}

// SetDevices switches to a new device selection.
func (h *DeviceTelemetryHandler) SetDevices(ctx context.Context, deviceIDs []string) {
	h.Set(ctx, strings.Join(deviceIDs, ","))
}

// Devices returns the current device selection.
func (h *DeviceTelemetryHandler) Devices() []string {
	return splitDevices(h.Target())
}

func deviceSampleKey(t horde.DeviceTelemetry) string {
	return t.DeviceID + "@" + t.CreateTime.UTC().Format(time.RFC3339Nano)
}

func splitDevices(target string) []string {
	var ids []string
	for _, id := range strings.Split(target, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
