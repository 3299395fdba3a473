package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sljivkov/dextick/tickmath"
)

// Update is the result of one observation pass over a pool.
// A derivation that failed leaves its Has flag false, so a failed read is
// distinguishable from a window that legitimately produced no points.
type Update struct {
	Pool      common.Address `json:"pool"`
	Block     uint64         `json:"block"`
	BlockHash common.Hash    `json:"block_hash"`
	At        time.Time      `json:"at"`

	CurrentTick     int64   `json:"current_tick"`
	CurrentPrice    float64 `json:"current_price"`
	HasCurrentPrice bool    `json:"has_current_price"`

	Observations    []tickmath.PricePoint `json:"observations"`
	HasObservations bool                  `json:"has_observations"`
}

// Empty reports whether neither derivation produced a result
func (u Update) Empty() bool {
	return !u.HasCurrentPrice && !u.HasObservations
}
