// Package repository stores the price history produced by observers.
package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sljivkov/dextick/domain"
)

// Repository persists observer updates through gorm
type Repository struct {
	logger logrus.FieldLogger
	dbCon  *gorm.DB
}

// New migrates the schema and returns a Repository
func New(db *gorm.DB, logger logrus.FieldLogger) (*Repository, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ret := &Repository{
		logger: logger,
		dbCon:  db,
	}

	// Create tables for data structures (if table already exists it will not be overwritten)
	if err := db.AutoMigrate(&CurrentPrice{}); err != nil {
		return nil, fmt.Errorf("CurrentPrice table migrate error: %w", err)
	}

	if err := db.AutoMigrate(&WindowPrice{}); err != nil {
		return nil, fmt.Errorf("WindowPrice table migrate error: %w", err)
	}

	return ret, nil
}

// SaveUpdate stores whatever derivations the update carries, in one transaction
func (r *Repository) SaveUpdate(ctx context.Context, update domain.Update) error {
	pool := update.Pool.Hex()

	err := r.dbCon.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if update.HasCurrentPrice {
			row := CurrentPrice{
				Pool:       pool,
				Block:      update.Block,
				BlockHash:  update.BlockHash.Hex(),
				ObservedAt: update.At,
				Tick:       update.CurrentTick,
				Price:      update.CurrentPrice,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("current price insert: %w", err)
			}
		}

		if !update.HasObservations || len(update.Observations) == 0 {
			return nil
		}

		rows := make([]WindowPrice, 0, len(update.Observations))
		for _, p := range update.Observations {
			rows = append(rows, WindowPrice{
				Pool:           pool,
				Batch:          update.At.UnixNano(),
				Block:          update.Block,
				ObservedAt:     update.At,
				FromSecondsAgo: p.FromSecondsAgo,
				ToSecondsAgo:   p.ToSecondsAgo,
				Tick:           p.Tick,
				Price:          p.Price,
			})
		}

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("window prices insert: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{"pool": pool, "block": update.Block}).Debug("update stored")

	return nil
}

// LatestPrices returns up to limit current-price rows of pool, newest first
func (r *Repository) LatestPrices(ctx context.Context, pool string, limit int) ([]CurrentPrice, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []CurrentPrice
	err := r.dbCon.WithContext(ctx).
		Where("pool = ?", pool).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest prices query: %w", err)
	}

	return rows, nil
}

// LatestWindow returns the windowed series stored with the newest update of pool
func (r *Repository) LatestWindow(ctx context.Context, pool string) ([]WindowPrice, error) {
	var last WindowPrice
	res := r.dbCon.WithContext(ctx).Where("pool = ?", pool).Order("id DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("latest window query: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return []WindowPrice{}, nil
	}

	var rows []WindowPrice
	err := r.dbCon.WithContext(ctx).
		Where("pool = ? AND batch = ?", pool, last.Batch).
		Order("from_seconds_ago DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest window query: %w", err)
	}

	return rows, nil
}

// Close releases the database connection pool
func (r *Repository) Close() error {
	db, err := r.dbCon.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
