package observer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/tickmath"
)

// decimalsDelta reads decimals(token0) - decimals(token1) for pool
func decimalsDelta(ctx context.Context, reader domain.PoolReader, pool common.Address) (int, error) {
	token0, token1, err := reader.Tokens(ctx, pool)
	if err != nil {
		return 0, err
	}

	var decimals0, decimals1 uint8

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		decimals0, err = reader.Decimals(gctx, token0)
		return err
	})
	g.Go(func() error {
		var err error
		decimals1, err = reader.Decimals(gctx, token1)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return tickmath.DecimalsDelta(decimals0, decimals1), nil
}
