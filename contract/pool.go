package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Slot0 is the pool's packed current state
type Slot0 struct {
	SqrtPriceX96               *big.Int
	Tick                       *big.Int
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	FeeProtocol                uint8
	Unlocked                   bool
}

// Observation is the pool's answer to observe(secondsAgos)
type Observation struct {
	TickCumulatives                    []*big.Int
	SecondsPerLiquidityCumulativeX128s []*big.Int
}

// Pool is a read-only binding around a concentrated-liquidity pool
type Pool struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewPool binds a pool at address
func NewPool(address common.Address, caller bind.ContractCaller) (*Pool, error) {
	contract, err := bindCaller(address, PoolABI, caller)
	if err != nil {
		return nil, err
	}

	return &Pool{address: address, contract: contract}, nil
}

// Address returns the bound pool address
func (p *Pool) Address() common.Address {
	return p.address
}

// Slot0 calls slot0()
func (p *Pool) Slot0(opts *bind.CallOpts) (Slot0, error) {
	var out []any
	if err := p.contract.Call(opts, &out, "slot0"); err != nil {
		return Slot0{}, err
	}

	return Slot0{
		SqrtPriceX96:               *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Tick:                       *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		ObservationIndex:           *abi.ConvertType(out[2], new(uint16)).(*uint16),
		ObservationCardinality:     *abi.ConvertType(out[3], new(uint16)).(*uint16),
		ObservationCardinalityNext: *abi.ConvertType(out[4], new(uint16)).(*uint16),
		FeeProtocol:                *abi.ConvertType(out[5], new(uint8)).(*uint8),
		Unlocked:                   *abi.ConvertType(out[6], new(bool)).(*bool),
	}, nil
}

// Observe calls observe(secondsAgos)
func (p *Pool) Observe(opts *bind.CallOpts, secondsAgos []uint32) (Observation, error) {
	var out []any
	if err := p.contract.Call(opts, &out, "observe", secondsAgos); err != nil {
		return Observation{}, err
	}

	return Observation{
		TickCumulatives:                    *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int),
		SecondsPerLiquidityCumulativeX128s: *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int),
	}, nil
}

// Token0 calls token0()
func (p *Pool) Token0(opts *bind.CallOpts) (common.Address, error) {
	return p.token(opts, "token0")
}

// Token1 calls token1()
func (p *Pool) Token1(opts *bind.CallOpts) (common.Address, error) {
	return p.token(opts, "token1")
}

func (p *Pool) token(opts *bind.CallOpts, method string) (common.Address, error) {
	var out []any
	if err := p.contract.Call(opts, &out, method); err != nil {
		return common.Address{}, err
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
