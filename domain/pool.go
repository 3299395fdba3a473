// Package domain defines core interfaces and types for the dextick service
package domain

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MaxWindowPoints is the pool oracle's maximum observation cardinality.
// A window sampling more points than this cannot be answered on-chain.
const MaxWindowPoints = 65535

// Window is the span and sampling granularity of the historical price series
type Window struct {
	TimeAgo  time.Duration // How far back the series starts
	Interval time.Duration // Width of one averaged sub-interval
}

// Validate reports whether the window can be sampled on-chain
func (w Window) Validate() error {
	if w.TimeAgo < 0 {
		return &ConfigError{Field: "window", Err: fmt.Errorf("%w: start %s is in the future", ErrInvalidWindow, w.TimeAgo)}
	}

	if w.Interval < time.Second {
		return &ConfigError{Field: "window", Err: fmt.Errorf("%w: interval %s is below one second", ErrInvalidWindow, w.Interval)}
	}

	if w.TimeAgo%time.Second != 0 || w.Interval%time.Second != 0 {
		return &ConfigError{Field: "window", Err: fmt.Errorf("%w: %s/%s is not in whole seconds", ErrInvalidWindow, w.TimeAgo, w.Interval)}
	}

	if w.TimeAgo/time.Second > math.MaxUint32 || w.Interval/time.Second > math.MaxUint32 {
		return &ConfigError{Field: "window", Err: fmt.Errorf("%w: %s/%s is too wide", ErrInvalidWindow, w.TimeAgo, w.Interval)}
	}

	if points := int64(w.TimeAgo/w.Interval) + 1; points > MaxWindowPoints {
		return &ConfigError{Field: "window", Err: fmt.Errorf("%w: %s/%s samples %d points, at most %d allowed",
			ErrInvalidWindow, w.TimeAgo, w.Interval, points, MaxWindowPoints)}
	}

	return nil
}

// Seconds returns the window as the seconds-ago units the pool oracle expects
func (w Window) Seconds() (timeAgo, interval uint32) {
	return uint32(w.TimeAgo / time.Second), uint32(w.Interval / time.Second)
}

// ParsePool validates the syntax of a pool address, without checking it exists on-chain.
// The zero address is rejected as well: it is what an unset or mistyped value
// decodes to and can never be a deployed pool.
func ParsePool(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, &ConfigError{Field: "pool", Err: fmt.Errorf("%w: %q", ErrInvalidPool, s)}
	}

	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, &ConfigError{Field: "pool", Err: fmt.Errorf("%w: zero address", ErrInvalidPool)}
	}

	return addr, nil
}

// PoolReader is the read-only chain capability the observer depends on
type PoolReader interface {
	// Tokens returns the pool's token0 and token1 addresses
	Tokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error)

	// Decimals returns the decimal precision of an ERC-20 token
	Decimals(ctx context.Context, token common.Address) (uint8, error)

	// Slot0Tick returns the pool's current tick
	Slot0Tick(ctx context.Context, pool common.Address) (*big.Int, error)

	// Observe returns the cumulative tick at each of the given seconds-ago offsets
	Observe(ctx context.Context, pool common.Address, secondsAgos []uint32) ([]*big.Int, error)

	// SubscribeNewHead streams new block headers into ch
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)

	// Close releases the underlying connection
	Close()
}

// Dialer opens a fresh PoolReader connection
type Dialer func(ctx context.Context) (PoolReader, error)
