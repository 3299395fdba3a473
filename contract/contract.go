// Package contract provides read-only Go bindings for concentrated-liquidity
// pools and the ERC-20 tokens they trade.
package contract

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed abi/pool.abi
var poolABIJSON string

//go:embed abi/erc20.abi
var erc20ABIJSON string

// PoolABI returns the parsed pool ABI
var PoolABI = sync.OnceValues(func() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(poolABIJSON))
})

// ERC20ABI returns the parsed ERC-20 ABI
var ERC20ABI = sync.OnceValues(func() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(erc20ABIJSON))
})

func bindCaller(address common.Address, parsed func() (abi.ABI, error), caller bind.ContractCaller) (*bind.BoundContract, error) {
	parsedABI, err := parsed()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return bind.NewBoundContract(address, parsedABI, caller, nil, nil), nil
}
