// Package runner executes the decode, caption and translate pipeline for one
// request at a time, off the caller's goroutine.
//
// A Runner admits at most one request in flight. Submit returns ErrBusy while
// a request is running; it never queues. Every accepted request produces
// exactly one CaptionResult on the Results channel, whether it succeeds,
// fails, times out, or a collaborator panics. Results are plain values: the
// consumer applies them on its own update loop and the worker never touches
// presentation state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/menta2k/image-captioner/internal/telemetry"
	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/types"
)

// DefaultTimeout bounds one request when Options.Timeout is not set
const DefaultTimeout = 5 * time.Minute

const (
	stageCaption   = "caption"
	stageTranslate = "translate"
)

var (
	// ErrBusy is returned by Submit while another request is in flight
	ErrBusy = errors.New("runner: a request is already in flight")
	// ErrClosed is returned by Submit after Close
	ErrClosed = errors.New("runner: closed")
)

// Decoder loads a bitmap from a file path
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Captioner describes a bitmap in English
type Captioner interface {
	Caption(ctx context.Context, img image.Image) (string, error)
}

// Translator renders English text in the target language
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Services are the process-wide collaborators shared by every request.
// They are read-only after construction.
type Services struct {
	Decoder    Decoder
	Captioner  Captioner
	Translator Translator
}

// Options tune a Runner; the zero value is usable
type Options struct {
	Timeout  time.Duration
	Logger   *slog.Logger
	Recorder *telemetry.Recorder
	Now      func() time.Time
}

// Runner is the single-in-flight task runner
type Runner struct {
	services Services
	timeout  time.Duration
	log      *slog.Logger
	rec      *telemetry.Recorder
	now      func() time.Time

	slot    *semaphore.Weighted
	results chan types.CaptionResult

	deliverMu sync.Mutex

	mu        sync.Mutex
	state     types.Status
	closed    bool
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Runner. All three services are required.
func New(services Services, opts Options) (*Runner, error) {
	if services.Decoder == nil || services.Captioner == nil || services.Translator == nil {
		return nil, fmt.Errorf("runner: decoder, captioner and translator are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		services: services,
		timeout:  opts.Timeout,
		log:      opts.Logger.With("component", "runner.Runner"),
		rec:      opts.Recorder,
		now:      opts.Now,
		slot:     semaphore.NewWeighted(1),
		results:  make(chan types.CaptionResult, 1),
		state:    types.Idle,
	}, nil
}

// Results delivers one CaptionResult per accepted request, in submission order.
// The channel is closed by Close once the last result has been sent.
func (r *Runner) Results() <-chan types.CaptionResult {
	return r.results
}

// State reports the state of the most recent request
func (r *Runner) State() types.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Busy reports whether a request is in flight
func (r *Runner) Busy() bool {
	return r.State() == types.Running
}

// Submit starts processing imagePath in the background and returns immediately.
func (r *Runner) Submit(imagePath string) (types.CaptionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return types.CaptionRequest{}, ErrClosed
	}
	if !r.slot.TryAcquire(1) {
		r.rec.Rejected()
		return types.CaptionRequest{}, ErrBusy
	}

	req := types.CaptionRequest{
		ID:          uuid.NewString(),
		ImagePath:   imagePath,
		SubmittedAt: r.now(),
	}
	r.state = types.Running
	r.rec.Submitted()
	r.log.Info("request submitted", "request_id", req.ID, "path", imagePath)

	r.wg.Add(1)
	go r.run(req)
	return req, nil
}

// Close stops admitting requests, waits for the in-flight one and closes Results.
// The consumer must keep draining Results until it is closed.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	r.closeOnce.Do(func() { close(r.results) })
}

func (r *Runner) run(req types.CaptionRequest) {
	defer r.wg.Done()

	start := time.Now()
	result := r.execute(req)
	result.Request = req
	result.Elapsed = time.Since(start)

	r.mu.Lock()
	r.state = result.Status
	r.mu.Unlock()

	r.rec.Finished(result.OK(), result.Elapsed)
	if result.OK() {
		r.log.Info("request completed",
			"request_id", req.ID,
			"caption", utils.Truncate(result.English, 80),
			"elapsed", result.Elapsed,
		)
	} else {
		r.log.Warn("request failed",
			"request_id", req.ID,
			"kind", result.Kind,
			"error", result.Message,
			"elapsed", result.Elapsed,
		)
	}

	// The slot is free before the result is visible, so a consumer may
	// resubmit as soon as it receives one. deliverMu keeps a request accepted
	// in that window from overtaking this send.
	r.deliverMu.Lock()
	r.slot.Release(1)
	r.results <- result
	r.deliverMu.Unlock()
}

func (r *Runner) execute(req types.CaptionRequest) (result types.CaptionResult) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("pipeline panic", "request_id", req.ID, "panic", p)
			result = types.Failure(req, &types.UnknownError{Err: fmt.Errorf("panic: %v", p)})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	img, err := r.services.Decoder.Decode(req.ImagePath)
	if err != nil {
		return types.Failure(req, decodeError(req.ImagePath, err))
	}

	english, err := r.services.Captioner.Caption(ctx, img)
	if err == nil && english == "" {
		err = errors.New("empty caption")
	}
	if err != nil {
		return types.Failure(req, inferenceError(ctx, stageCaption, err))
	}

	arabic, err := r.services.Translator.Translate(ctx, english)
	if err == nil && arabic == "" {
		err = errors.New("empty translation")
	}
	if err != nil {
		return types.Failure(req, inferenceError(ctx, stageTranslate, err))
	}

	return types.Success(req, english, arabic)
}

func decodeError(path string, err error) error {
	var de *types.DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &types.DecodeError{Path: path, Err: err}
}

func inferenceError(ctx context.Context, stage string, err error) error {
	var ie *types.InferenceError
	if errors.As(err, &ie) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out: %w", err)
	}
	return &types.InferenceError{Stage: stage, Err: err}
}
