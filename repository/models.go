package repository

import (
	"time"
)

// CurrentPrice is one current-price reading of a pool
type CurrentPrice struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	Pool       string `gorm:"index:idx_current_pool"`
	Block      uint64
	BlockHash  string
	ObservedAt time.Time
	Tick       int64
	Price      float64
}

// WindowPrice is one averaged bucket of a windowed series.
// Rows written by the same update share a Batch.
type WindowPrice struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	Pool           string `gorm:"index:idx_window_pool_batch"`
	Batch          int64  `gorm:"index:idx_window_pool_batch"`
	Block          uint64
	ObservedAt     time.Time
	FromSecondsAgo uint32
	ToSecondsAgo   uint32
	Tick           string
	Price          float64
}
