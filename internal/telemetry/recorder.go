package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks runner-level counters for the lifetime of the process.
type Recorder struct {
	log *slog.Logger

	submitted atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	busyNanos atomic.Int64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	Submitted uint64
	Rejected  uint64
	Completed uint64
	Failed    uint64
	BusyTime  time.Duration
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Submitted counts an accepted request.
func (r *Recorder) Submitted() {
	if r == nil {
		return
	}
	r.submitted.Add(1)
}

// Rejected counts a submit refused because another request was in flight.
func (r *Recorder) Rejected() {
	if r == nil {
		return
	}
	r.rejected.Add(1)
	r.log.Debug("request rejected while busy", "total_rejected", r.rejected.Load())
}

// Finished records the terminal outcome of one request.
func (r *Recorder) Finished(ok bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	if ok {
		r.completed.Add(1)
	} else {
		r.failed.Add(1)
	}
	r.busyNanos.Add(int64(elapsed))
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		Submitted: r.submitted.Load(),
		Rejected:  r.rejected.Load(),
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		BusyTime:  time.Duration(r.busyNanos.Load()),
	}
}

// LogTotals writes the snapshot at info level
func (r *Recorder) LogTotals() {
	if r == nil {
		return
	}
	s := r.Snapshot()
	r.log.Info("telemetry totals",
		"submitted", s.Submitted,
		"rejected", s.Rejected,
		"completed", s.Completed,
		"failed", s.Failed,
		"busy_time", s.BusyTime,
	)
}
