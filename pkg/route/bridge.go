package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/unklstewy/routewatch/internal/logging"
)

var (
	// ErrBridgeClosed is returned once the resolver worker has stopped.
	ErrBridgeClosed = errors.New("route resolver worker stopped")

	// ErrRequestInFlight is returned when a second request is made before
	// the first has been answered.
	ErrRequestInFlight = errors.New("route resolution already in flight")
)

// WaypointResolver resolves route tokens into waypoints.
type WaypointResolver interface {
	Resolve(ctx context.Context, tokens []string, plan FlightPlan) ([]Waypoint, error)
}

type request struct {
	tokens []string
	plan   FlightPlan
}

type response struct {
	waypoints []Waypoint
	err       error
}

// Bridge runs a resolver on one dedicated goroutine. That goroutine is the
// only user of the resolver and its database handle; callers talk to it
// through single-slot request and response channels.
type Bridge struct {
	requests  chan request
	responses chan response
	stop      chan struct{}
	done      chan struct{}
	busy      atomic.Bool
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewBridge starts the worker. It exits when ctx is cancelled or Close is called.
func NewBridge(ctx context.Context, resolver WaypointResolver, logger *slog.Logger) *Bridge {
	b := &Bridge{
		requests:  make(chan request, 1),
		responses: make(chan response, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logging.OrDefault(logger),
	}
	go b.run(ctx, resolver)
	return b
}

// Resolve hands tokens to the worker and waits for the result.
//
// ctx only bounds the hand-over. Once the worker holds the request the
// caller waits for its answer, so the channels never carry a stale reply.
func (b *Bridge) Resolve(ctx context.Context, tokens []string, plan FlightPlan) ([]Waypoint, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight
	}
	defer b.busy.Store(false)

	select {
	case <-b.done:
		return nil, ErrBridgeClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case b.requests <- request{tokens: tokens, plan: plan}:
	}

	resp, ok := <-b.responses
	if !ok {
		return nil, ErrBridgeClosed
	}
	return resp.waypoints, resp.err
}

// Close stops the worker and waits for it to exit.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.stop) })
	<-b.done
}

func (b *Bridge) run(ctx context.Context, resolver WaypointResolver) {
	defer close(b.done)
	defer close(b.responses)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stop:
			return
		case req := <-b.requests:
			b.responses <- b.handle(ctx, resolver, req)
		}
	}
}

// handle resolves one request. A panic is reported to the caller and the
// worker keeps serving.
func (b *Bridge) handle(ctx context.Context, resolver WaypointResolver, req request) (resp response) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("route resolver panic", slog.Any("panic", p))
			resp = response{err: fmt.Errorf("%w: panic: %v", ErrResolution, p)}
		}
	}()

	wps, err := resolver.Resolve(ctx, req.tokens, req.plan)
	if err != nil {
		b.logger.Warn("route resolution failed", slog.Any("err", err))
	}
	return response{waypoints: wps, err: err}
}
