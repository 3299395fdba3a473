package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20 is a read-only binding around a token's metadata
type ERC20 struct {
	contract *bind.BoundContract
}

// NewERC20 binds a token at address
func NewERC20(address common.Address, caller bind.ContractCaller) (*ERC20, error) {
	contract, err := bindCaller(address, ERC20ABI, caller)
	if err != nil {
		return nil, err
	}

	return &ERC20{contract: contract}, nil
}

// Decimals calls decimals()
func (t *ERC20) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []any
	if err := t.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}

	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Symbol calls symbol()
func (t *ERC20) Symbol(opts *bind.CallOpts) (string, error) {
	var out []any
	if err := t.contract.Call(opts, &out, "symbol"); err != nil {
		return "", err
	}

	return *abi.ConvertType(out[0], new(string)).(*string), nil
}
