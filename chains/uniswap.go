// Package chains provides blockchain interaction implementations
package chains

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sljivkov/dextick/contract"
	"github.com/sljivkov/dextick/domain"
)

var _ domain.PoolReader = (*UniswapClient)(nil)

// Backend is the subset of an Ethereum RPC client the pool reader needs
type Backend interface {
	bind.ContractCaller
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	Close()
}

// UniswapClient reads concentrated-liquidity pool state over JSON-RPC
type UniswapClient struct {
	backend Backend
	log     logrus.FieldLogger
}

// PoolInfo describes the token pair of a pool
type PoolInfo struct {
	Pool      common.Address
	Token0    common.Address
	Token1    common.Address
	Symbol0   string
	Symbol1   string
	Decimals0 uint8
	Decimals1 uint8
}

// Pair returns the pool's human-readable pair name, e.g. "USDC/WETH"
func (i PoolInfo) Pair() string {
	return i.Symbol0 + "/" + i.Symbol1
}

// NewUniswapClient wraps an already connected backend
func NewUniswapClient(backend Backend, log logrus.FieldLogger) *UniswapClient {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &UniswapClient{
		backend: backend,
		log:     log,
	}
}

// Dial connects to rpcURL. Head subscriptions need a websocket or IPC endpoint.
func Dial(ctx context.Context, rpcURL string, log logrus.FieldLogger) (*UniswapClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	return NewUniswapClient(client, log), nil
}

// Dialer returns a domain.Dialer that opens a new client on every call
func Dialer(rpcURL string, log logrus.FieldLogger) domain.Dialer {
	return func(ctx context.Context) (domain.PoolReader, error) {
		client, err := Dial(ctx, rpcURL, log)
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// Tokens fetches token0 and token1 of the pool concurrently
func (c *UniswapClient) Tokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	binding, err := contract.NewPool(pool, c.backend)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	var token0, token1 common.Address

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		token0, err = binding.Token0(callOpts(gctx))
		if err != nil {
			return &domain.FetchError{Op: "token0", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		token1, err = binding.Token1(callOpts(gctx))
		if err != nil {
			return &domain.FetchError{Op: "token1", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return common.Address{}, common.Address{}, err
	}

	return token0, token1, nil
}

// Decimals fetches the decimal precision of token
func (c *UniswapClient) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	binding, err := contract.NewERC20(token, c.backend)
	if err != nil {
		return 0, err
	}

	decimals, err := binding.Decimals(callOpts(ctx))
	if err != nil {
		return 0, &domain.FetchError{Op: "decimals " + token.Hex(), Err: err}
	}

	return decimals, nil
}

// Slot0Tick fetches the pool's current tick
func (c *UniswapClient) Slot0Tick(ctx context.Context, pool common.Address) (*big.Int, error) {
	binding, err := contract.NewPool(pool, c.backend)
	if err != nil {
		return nil, err
	}

	slot0, err := binding.Slot0(callOpts(ctx))
	if err != nil {
		return nil, &domain.FetchError{Op: "slot0", Err: err}
	}

	if slot0.Tick == nil {
		return nil, &domain.FetchError{Op: "slot0", Err: fmt.Errorf("invalid tick data received")}
	}

	return slot0.Tick, nil
}

// Observe fetches the cumulative ticks at secondsAgos in one call
func (c *UniswapClient) Observe(ctx context.Context, pool common.Address, secondsAgos []uint32) ([]*big.Int, error) {
	binding, err := contract.NewPool(pool, c.backend)
	if err != nil {
		return nil, err
	}

	obs, err := binding.Observe(callOpts(ctx), secondsAgos)
	if err != nil {
		return nil, &domain.FetchError{Op: "observe", Err: err}
	}

	if len(obs.TickCumulatives) != len(secondsAgos) {
		return nil, &domain.FetchError{
			Op:  "observe",
			Err: fmt.Errorf("got %d tick cumulatives for %d offsets", len(obs.TickCumulatives), len(secondsAgos)),
		}
	}

	return obs.TickCumulatives, nil
}

// SubscribeNewHead streams new block headers into ch
func (c *UniswapClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	sub, err := c.backend.SubscribeNewHead(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to new heads: %w", err)
	}

	c.log.Debug("📡 Subscribed to new heads")

	return sub, nil
}

// Info resolves the pool's tokens, their symbols and decimals
func (c *UniswapClient) Info(ctx context.Context, pool common.Address) (PoolInfo, error) {
	token0, token1, err := c.Tokens(ctx, pool)
	if err != nil {
		return PoolInfo{}, err
	}

	info := PoolInfo{Pool: pool, Token0: token0, Token1: token1}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range []struct {
		token    common.Address
		symbol   *string
		decimals *uint8
	}{
		{token0, &info.Symbol0, &info.Decimals0},
		{token1, &info.Symbol1, &info.Decimals1},
	} {
		t := t // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			binding, err := contract.NewERC20(t.token, c.backend)
			if err != nil {
				return err
			}

			if *t.decimals, err = binding.Decimals(callOpts(gctx)); err != nil {
				return &domain.FetchError{Op: "decimals " + t.token.Hex(), Err: err}
			}

			if *t.symbol, err = binding.Symbol(callOpts(gctx)); err != nil {
				// some tokens encode symbol as bytes32; fall back to the address
				c.log.WithError(err).WithField("token", t.token.Hex()).Debug("symbol lookup failed")
				*t.symbol = t.token.Hex()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return PoolInfo{}, err
	}

	return info, nil
}

// Close releases the RPC connection
func (c *UniswapClient) Close() {
	c.backend.Close()
}
