package metrics

import (
	"time"

	obserrors "github.com/target/zenithflow/internal/observability/errors"
	"github.com/target/zenithflow/internal/observability/statsd"
)

// Metric names emitted by the session synchronizer and booking coordinator.
const (
	SyncReady           = "sync.ready"
	SyncRecoveryTimeout = "sync.recovery_timeout"
	SyncStaleDiscard    = "sync.stale_discard"
	SyncReadyLatency    = "sync.ready_latency"
	SyncWatchers        = "sync.watchers"
	BookingReserved     = "booking.reserved"
	BookingRejected     = "booking.rejected"
	BookingInsertTime   = "booking.insert_latency"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// SyncMetric describes a synchronizer transition.
type SyncMetric struct {
	// Trigger names what moved the synchronizer: restore, event, timeout.
	Trigger string
	// Source names the stale input for discard metrics: restore or profile.
	Source string
	// Latency is the time from Start to ready; zero skips the timing.
	Latency time.Duration
}

// EmitSyncReady records the transition from initializing to ready.
func EmitSyncReady(sink statsd.Sink, in SyncMetric) {
	if sink == nil {
		return
	}
	tags := CloneTags(map[string]string{"trigger": in.Trigger})
	sink.Count(SyncReady, 1, tags)
	if in.Latency > 0 {
		sink.Timing(SyncReadyLatency, in.Latency, tags)
	}
	if in.Trigger == "timeout" {
		sink.Count(SyncRecoveryTimeout, 1, nil)
	}
}

// EmitStaleDiscard records a discarded out-of-date result.
func EmitStaleDiscard(sink statsd.Sink, in SyncMetric) {
	if sink == nil {
		return
	}
	sink.Count(SyncStaleDiscard, 1, CloneTags(map[string]string{"source": in.Source}))
}

// EmitBookingOutcome records the outcome of a reservation attempt. A nil err
// counts as a reservation; otherwise reason tags the rejection.
func EmitBookingOutcome(sink statsd.Sink, reason string, err error) {
	if sink == nil {
		return
	}
	if err == nil {
		sink.Count(BookingReserved, 1, map[string]string{"result": ResultSuccess})
		return
	}

	tags := map[string]string{"result": ResultError, "reason": reason}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	sink.Count(BookingRejected, 1, tags)
}

// EmitWatchers reports how many snapshot watchers are registered.
func EmitWatchers(sink statsd.Sink, n int) {
	if sink == nil {
		return
	}
	sink.Gauge(SyncWatchers, float64(n), nil)
}

// EmitBookingInsert records the round trip of a booking insert.
func EmitBookingInsert(sink statsd.Sink, took time.Duration, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	sink.Timing(BookingInsertTime, took, map[string]string{"result": result})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys and values.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
