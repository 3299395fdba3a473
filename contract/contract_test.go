package contract

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller answers eth_call with ABI-packed canned outputs
type fakeCaller struct {
	t       *testing.T
	abi     abi.ABI
	outputs map[string][]any

	mu   sync.Mutex
	args map[string][]any
}

func newFakeCaller(t *testing.T, parsed func() (abi.ABI, error), outputs map[string][]any) *fakeCaller {
	parsedABI, err := parsed()
	require.NoError(t, err)

	return &fakeCaller{t: t, abi: parsedABI, outputs: outputs, args: make(map[string][]any)}
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(call.Data[:4])
	require.NoError(f.t, err)

	args, err := method.Inputs.Unpack(call.Data[4:])
	require.NoError(f.t, err)

	f.mu.Lock()
	f.args[method.Name] = args
	f.mu.Unlock()

	out, ok := f.outputs[method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}

	return method.Outputs.Pack(out...)
}

func TestPoolSlot0(t *testing.T) {
	caller := newFakeCaller(t, PoolABI, map[string][]any{
		"slot0": {big.NewInt(1 << 40), big.NewInt(-201234), uint16(7), uint16(100), uint16(100), uint8(0), true},
	})

	pool, err := NewPool(common.HexToAddress("0x01"), caller)
	require.NoError(t, err)

	slot0, err := pool.Slot0(&bind.CallOpts{})
	require.NoError(t, err)

	assert.Equal(t, int64(-201234), slot0.Tick.Int64())
	assert.Equal(t, uint16(100), slot0.ObservationCardinality)
	assert.True(t, slot0.Unlocked)
}

func TestPoolObserve(t *testing.T) {
	caller := newFakeCaller(t, PoolABI, map[string][]any{
		"observe": {
			[]*big.Int{big.NewInt(100), big.NewInt(6_000_100), big.NewInt(12_000_100)},
			[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
		},
	})

	pool, err := NewPool(common.HexToAddress("0x01"), caller)
	require.NoError(t, err)

	obs, err := pool.Observe(&bind.CallOpts{}, []uint32{60, 30, 0})
	require.NoError(t, err)

	require.Len(t, obs.TickCumulatives, 3)
	assert.Equal(t, int64(6_000_100), obs.TickCumulatives[1].Int64())
	assert.Equal(t, []any{[]uint32{60, 30, 0}}, caller.args["observe"])
}

func TestPoolTokens(t *testing.T) {
	token0 := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	token1 := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	caller := newFakeCaller(t, PoolABI, map[string][]any{
		"token0": {token0},
		"token1": {token1},
	})

	pool, err := NewPool(common.HexToAddress("0x01"), caller)
	require.NoError(t, err)

	got0, err := pool.Token0(&bind.CallOpts{})
	require.NoError(t, err)
	got1, err := pool.Token1(&bind.CallOpts{})
	require.NoError(t, err)

	assert.Equal(t, token0, got0)
	assert.Equal(t, token1, got1)
}

func TestPoolCallReverted(t *testing.T) {
	pool, err := NewPool(common.HexToAddress("0x01"), newFakeCaller(t, PoolABI, nil))
	require.NoError(t, err)

	_, err = pool.Slot0(&bind.CallOpts{})
	assert.Error(t, err)
}

func TestERC20(t *testing.T) {
	caller := newFakeCaller(t, ERC20ABI, map[string][]any{
		"decimals": {uint8(6)},
		"symbol":   {"USDC"},
	})

	token, err := NewERC20(common.HexToAddress("0x02"), caller)
	require.NoError(t, err)

	decimals, err := token.Decimals(&bind.CallOpts{})
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	symbol, err := token.Symbol(&bind.CallOpts{})
	require.NoError(t, err)
	assert.Equal(t, "USDC", symbol)
}
