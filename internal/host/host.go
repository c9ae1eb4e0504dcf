// Package host runs a printer driver on its own goroutine. Jobs submitted
// from other goroutines run between ticks; each tick sends at most one chunk
// of queued raster data. A job only starts once the queue is empty, so
// nothing is written in the middle of an image.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tomgalvin.uk/thermalprint/internal/printer"
)

var (
	ErrPrinterBusy = errors.New("printer is busy")
	ErrStopped     = errors.New("printer host has stopped")
)

const (
	DefaultTick    = 10 * time.Millisecond
	defaultBacklog = 8
)

// Job runs with exclusive access to the driver.
type Job func(p *printer.Printer) error

const (
	queued int32 = iota
	started
	abandoned
)

type request struct {
	ctx   context.Context
	job   Job
	done  chan error
	state atomic.Int32
}

// start claims the request for the loop. It fails once the submitter has
// given up, so an abandoned job never prints.
func (r *request) start() bool {
	if r.ctx.Err() != nil {
		r.state.CompareAndSwap(queued, abandoned)
	}
	return r.state.CompareAndSwap(queued, started)
}

// abandon withdraws a request that hasn't started yet.
func (r *request) abandon() bool {
	return r.state.CompareAndSwap(queued, abandoned)
}

type Host struct {
	p       *printer.Printer
	log     *slog.Logger
	tick    time.Duration
	jobs    chan *request
	stopped chan struct{}
	status  atomic.Pointer[printer.Status]
}

func New(p *printer.Printer, tick time.Duration, log *slog.Logger) *Host {
	if tick <= 0 {
		tick = DefaultTick
	}
	h := &Host{
		p:       p,
		log:     log,
		tick:    tick,
		jobs:    make(chan *request, defaultBacklog),
		stopped: make(chan struct{}),
	}
	h.refresh()
	return h
}

func (h *Host) refresh() {
	s := h.p.Status()
	h.status.Store(&s)
}

// Run owns the driver until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.stopped)

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	h.log.Info("Printer loop started", "tick", h.tick)
	for {
		jobs := h.jobs
		if h.p.Pending() > 0 {
			jobs = nil
		}

		select {
		case <-ctx.Done():
			h.log.Info("Printer loop stopped", "pending", h.p.Pending())
			return ctx.Err()
		case r := <-jobs:
			if !r.start() {
				h.log.Debug("Skipping abandoned print job", "error", r.ctx.Err())
				r.done <- r.ctx.Err()
				continue
			}
			err := h.run(r.job)
			h.refresh()
			r.done <- err
		case <-ticker.C:
			if h.p.Loop() {
				if err := h.p.TakeErr(); err != nil {
					h.log.Warn("Couldn't send raster chunk", "error", err)
				}
				h.refresh()
			}
		}
	}
}

func (h *Host) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("print job panicked: %v", r)
			h.log.Error("Print job panicked", "panic", r)
		}
	}()

	// a failure left over from an earlier job is that job's problem
	h.p.TakeErr()

	jobErr := job(h.p)
	linkErr := h.p.TakeErr()
	if jobErr != nil {
		return jobErr
	}
	if linkErr != nil {
		return fmt.Errorf("Couldn't write to printer:\n%w", linkErr)
	}
	return nil
}

// Submit queues a job and waits for it to finish. It fails straight away
// with ErrPrinterBusy when the backlog is full. If ctx ends before the job
// starts, the job is dropped and ctx's error returned; a job that has
// started is always waited for.
func (h *Host) Submit(ctx context.Context, job Job) error {
	r := &request{ctx: ctx, job: job, done: make(chan error, 1)}

	select {
	case h.jobs <- r:
	case <-h.stopped:
		return ErrStopped
	default:
		return ErrPrinterBusy
	}

	select {
	case err := <-r.done:
		return err
	case <-h.stopped:
		return ErrStopped
	case <-ctx.Done():
		if r.abandon() {
			return ctx.Err()
		}
	}

	select {
	case err := <-r.done:
		return err
	case <-h.stopped:
		return ErrStopped
	}
}

// Status is the driver state as of the last job or chunk sent.
func (h *Host) Status() printer.Status {
	return *h.status.Load()
}

// Drain waits until all queued raster data has been sent.
func (h *Host) Drain(ctx context.Context) error {
	return h.Submit(ctx, func(*printer.Printer) error { return nil })
}
