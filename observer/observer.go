// Package observer follows a concentrated-liquidity pool block by block and
// reports its current price together with a windowed series of average prices.
package observer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/tickmath"
)

const defaultResubscribeBackoff = 30 * time.Second

// ErrNoData is returned by Snapshot when neither derivation succeeded
var ErrNoData = errors.New("observation pass produced no data")

// Observer is a TickPriceObserver bound to one pool.
// It is STOPPED after New and after Stop, RUNNING after Start.
type Observer struct {
	pool     common.Address
	dial     domain.Dialer
	onUpdate func(domain.Update)

	log     logrus.FieldLogger
	metrics Metrics
	backoff time.Duration
	now     func() time.Time

	window  atomic.Pointer[domain.Window]
	running atomic.Bool

	// lifecycle, guarded by mu
	mu     sync.Mutex
	reader domain.PoolReader
	sub    event.Subscription
	cancel context.CancelFunc
	done   sync.WaitGroup
	inUse  sync.WaitGroup // snapshots borrowing reader
}

// New binds an observer to pool and window. It performs no I/O.
// Calls to onUpdate never overlap: the first one runs inside Start on the
// caller's goroutine, later ones on the observer's worker. onUpdate must not
// call Start, Stop or Snapshot.
func New(pool string, window domain.Window, dial domain.Dialer, onUpdate func(domain.Update), opts ...Option) (*Observer, error) {
	addr, err := domain.ParsePool(pool)
	if err != nil {
		return nil, err
	}

	if err := window.Validate(); err != nil {
		return nil, err
	}

	if dial == nil {
		return nil, &domain.ConfigError{Field: "dialer", Err: errors.New("dialer is required")}
	}

	if onUpdate == nil {
		return nil, &domain.ConfigError{Field: "callback", Err: errors.New("update callback is required")}
	}

	o := &Observer{
		pool:     addr,
		dial:     dial,
		onUpdate: onUpdate,
		log:      logrus.StandardLogger(),
		metrics:  nopMetrics{},
		backoff:  defaultResubscribeBackoff,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.log = o.log.WithField("pool", addr.Hex())
	o.window.Store(&window)

	return o, nil
}

// Pool returns the observed pool address
func (o *Observer) Pool() common.Address {
	return o.pool
}

// Window returns the window the next pass will use
func (o *Observer) Window() domain.Window {
	return *o.window.Load()
}

// SetWindow replaces the observation window. A pass already in flight
// finishes with the window it started with.
func (o *Observer) SetWindow(window domain.Window) error {
	if err := window.Validate(); err != nil {
		return err
	}

	o.window.Store(&window)
	o.log.WithFields(logrus.Fields{"time_ago": window.TimeAgo, "interval": window.Interval}).Info("🪟 Observation window updated")

	return nil
}

// Running reports whether the observer is subscribed to new blocks
func (o *Observer) Running() bool {
	return o.running.Load()
}

// Start connects, runs one pass and then runs another pass on every new block.
// ctx bounds the connection and the first pass; the observer keeps running until Stop.
// Starting a running observer is a no-op. Pass failures are logged, not returned.
func (o *Observer) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running.Load() {
		o.log.Debug("observer already running")
		return nil
	}

	reader, err := o.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	o.deliver(ctx, o.pass(ctx, reader, nil))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	heads := make(chan *types.Header, 16)

	sub := event.ResubscribeErr(o.backoff, func(subCtx context.Context, lastErr error) (event.Subscription, error) {
		if lastErr != nil {
			o.log.WithError(lastErr).Warn("🔴 Head subscription dropped, resubscribing")
			o.metrics.SubscriptionError(o.pool)
		}

		s, err := reader.SubscribeNewHead(subCtx, heads)
		if err != nil {
			o.log.WithError(err).Warn("🔴 Head subscription failed")
			o.metrics.SubscriptionError(o.pool)
			return nil, err
		}

		return s, nil
	})

	trigger := make(chan struct{}, 1)
	var latest atomic.Pointer[types.Header]

	o.done.Add(2)
	go o.dispatch(runCtx, sub, heads, trigger, &latest)
	go o.work(runCtx, reader, trigger, &latest)

	o.reader = reader
	o.sub = sub
	o.cancel = cancel
	o.running.Store(true)

	o.log.Info("📡 Listening for new blocks...")

	return nil
}

// Stop unsubscribes, waits for any in-flight pass or snapshot and closes the connection.
// No update is delivered after Stop returns. Stopping a stopped observer is a no-op.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running.Load() {
		return
	}

	o.cancel()
	o.sub.Unsubscribe()
	o.done.Wait()
	o.inUse.Wait()
	o.reader.Close()

	o.reader = nil
	o.sub = nil
	o.cancel = nil
	o.running.Store(false)

	o.log.Info("🛑 Observer stopped")
}

// Snapshot runs a single pass without invoking the update callback.
// It reuses the running connection or dials a temporary one. A concurrent
// Stop waits for the snapshot before closing the shared connection.
func (o *Observer) Snapshot(ctx context.Context) (domain.Update, error) {
	o.mu.Lock()
	reader := o.reader
	if reader != nil {
		o.inUse.Add(1)
		defer o.inUse.Done()
	}
	o.mu.Unlock()

	if reader == nil {
		r, err := o.dial(ctx)
		if err != nil {
			return domain.Update{}, fmt.Errorf("failed to connect: %w", err)
		}
		defer r.Close()

		reader = r
	}

	update, err := o.passErr(ctx, reader, nil)
	if update.Empty() {
		return update, errors.Join(ErrNoData, err)
	}

	return update, nil
}

// dispatch forwards block heads to the worker, keeping only the latest one
func (o *Observer) dispatch(ctx context.Context, sub event.Subscription, heads <-chan *types.Header,
	trigger chan<- struct{}, latest *atomic.Pointer[types.Header],
) {
	defer o.done.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-sub.Err():
			if ok && err != nil {
				o.log.WithError(err).Error("🔴 Subscription error")
			} else {
				o.log.Debug("head subscription closed")
			}
			return
		case head := <-heads:
			latest.Store(head)

			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}
}

// work runs passes one at a time so updates are never delivered out of order
func (o *Observer) work(ctx context.Context, reader domain.PoolReader, trigger <-chan struct{}, latest *atomic.Pointer[types.Header]) {
	defer o.done.Done()

	var last common.Hash

	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			head := latest.Load()
			if head == nil {
				continue
			}

			hash := head.Hash()
			if hash == last {
				o.log.WithField("block", head.Number).Debug("duplicate head skipped")
				continue
			}
			last = hash

			o.deliver(ctx, o.pass(ctx, reader, head))
		}
	}
}

func (o *Observer) deliver(ctx context.Context, update domain.Update) {
	if update.Empty() {
		o.log.WithField("block", update.Block).Warn("⚠️ Pass produced no data, waiting for next block")
		return
	}

	if ctx.Err() != nil {
		return
	}

	o.onUpdate(update)
}

func (o *Observer) pass(ctx context.Context, reader domain.PoolReader, head *types.Header) domain.Update {
	update, _ := o.passErr(ctx, reader, head)
	return update
}

// passErr derives the current price and the windowed series. The two
// derivations fail independently; a failed one leaves its Has flag unset.
func (o *Observer) passErr(ctx context.Context, reader domain.PoolReader, head *types.Header) (domain.Update, error) {
	started := time.Now()
	window := *o.window.Load()
	timeAgo, interval := window.Seconds()
	offsets := tickmath.Offsets(timeAgo, interval)

	update := domain.Update{Pool: o.pool, At: o.now()}
	if head != nil {
		update.Block = head.Number.Uint64()
		update.BlockHash = head.Hash()
	}

	log := o.log.WithField("block", update.Block)

	var (
		wg          sync.WaitGroup
		delta       int
		tick        *big.Int
		cumulatives []*big.Int

		deltaErr, tickErr, observeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		delta, deltaErr = decimalsDelta(ctx, reader, o.pool)
	}()
	go func() {
		defer wg.Done()
		tick, tickErr = reader.Slot0Tick(ctx, o.pool)
	}()

	if len(offsets) >= 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cumulatives, observeErr = reader.Observe(ctx, o.pool, offsets)
		}()
	}

	wg.Wait()

	if observeErr == nil && len(offsets) >= 2 && len(cumulatives) != len(offsets) {
		observeErr = &domain.FetchError{
			Op:  "observe",
			Err: fmt.Errorf("got %d tick cumulatives for %d offsets", len(cumulatives), len(offsets)),
		}
	}

	var errs []error

	switch err := errors.Join(deltaErr, tickErr); {
	case err != nil:
		errs = append(errs, err)
		o.metrics.DerivationFailed(o.pool, "current")
		log.WithError(err).Warn("❌ Current price skipped")
	case tick == nil || !tick.IsInt64():
		errs = append(errs, &domain.FetchError{Op: "slot0", Err: fmt.Errorf("tick %s out of range", tick)})
		o.metrics.DerivationFailed(o.pool, "current")
		log.WithField("tick", tick).Warn("❌ Current price skipped")
	default:
		update.CurrentTick = tick.Int64()
		update.CurrentPrice = tickmath.PriceFromTick(update.CurrentTick, delta)
		update.HasCurrentPrice = true
	}

	switch err := errors.Join(deltaErr, observeErr); {
	case len(offsets) < 2:
		update.Observations = []tickmath.PricePoint{}
		update.HasObservations = true
	case err != nil:
		errs = append(errs, observeErr)
		o.metrics.DerivationFailed(o.pool, "window")
		log.WithError(err).Warn("❌ Windowed observations skipped")
	default:
		samples := make([]tickmath.TickSample, len(offsets))
		for i, ago := range offsets {
			samples[i] = tickmath.TickSample{SecondsAgo: ago, TickCumulative: cumulatives[i]}
		}

		update.Observations = tickmath.Aggregate(samples, delta)
		update.HasObservations = true
	}

	took := time.Since(started)
	o.metrics.ObservePass(o.pool, took, update)

	log.WithFields(logrus.Fields{
		"price":        update.CurrentPrice,
		"tick":         update.CurrentTick,
		"observations": len(update.Observations),
		"took":         took,
	}).Debug("pass complete")

	return update, errors.Join(errs...)
}
