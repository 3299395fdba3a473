package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/repository/sqlite"
	"github.com/sljivkov/dextick/tickmath"
)

var pool = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")

func newRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := sqlite.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	repo, err := New(db, logger)
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func update(block uint64, at time.Time, price float64, points ...tickmath.PricePoint) domain.Update {
	return domain.Update{
		Pool:            pool,
		Block:           block,
		BlockHash:       common.BigToHash(common.Big1),
		At:              at,
		CurrentTick:     200000,
		CurrentPrice:    price,
		HasCurrentPrice: true,
		Observations:    points,
		HasObservations: points != nil,
	}
}

func TestSaveUpdateAndLatestPrices(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.SaveUpdate(ctx, update(1, now, 100)))
	require.NoError(t, repo.SaveUpdate(ctx, update(2, now.Add(time.Second), 101)))
	require.NoError(t, repo.SaveUpdate(ctx, update(3, now.Add(2*time.Second), 102)))

	rows, err := repo.LatestPrices(ctx, pool.Hex(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, uint64(3), rows[0].Block)
	assert.Equal(t, 102.0, rows[0].Price)
	assert.Equal(t, uint64(2), rows[1].Block)

	other, err := repo.LatestPrices(ctx, common.HexToAddress("0x01").Hex(), 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveUpdateSkipsMissingDerivations(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	u := update(5, time.Now(), 1, tickmath.PricePoint{Tick: "1", Price: 1.0001, FromSecondsAgo: 30, ToSecondsAgo: 0})
	u.HasCurrentPrice = false

	require.NoError(t, repo.SaveUpdate(ctx, u))

	rows, err := repo.LatestPrices(ctx, pool.Hex(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	window, err := repo.LatestWindow(ctx, pool.Hex())
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestLatestWindow(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	now := time.Now()

	empty, err := repo.LatestWindow(ctx, pool.Hex())
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.SaveUpdate(ctx, update(1, now, 100,
		tickmath.PricePoint{Tick: "10", FromSecondsAgo: 60, ToSecondsAgo: 30},
		tickmath.PricePoint{Tick: "11", FromSecondsAgo: 30, ToSecondsAgo: 0},
	)))
	require.NoError(t, repo.SaveUpdate(ctx, update(2, now.Add(time.Second), 100,
		tickmath.PricePoint{Tick: "20", FromSecondsAgo: 60, ToSecondsAgo: 30},
		tickmath.PricePoint{Tick: "21", FromSecondsAgo: 30, ToSecondsAgo: 0},
	)))

	window, err := repo.LatestWindow(ctx, pool.Hex())
	require.NoError(t, err)
	require.Len(t, window, 2)

	assert.Equal(t, "20", window[0].Tick)
	assert.Equal(t, "21", window[1].Tick)
	assert.Equal(t, uint64(2), window[0].Block)
}
