// Package erc20 reads token metadata and balances straight from
// token contracts.
package erc20

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	chainApp "github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/venues/app"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/asset"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// TokenABI covers the reads the scanner needs. symbol and name are
// declared as string; tokens that return bytes32 fall back to a
// placeholder.
const TokenABI = `[
	{
		"inputs": [],
		"name": "symbol",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "name",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const defaultDecimals = 18

// Ensure Client implements MetadataSource.
var _ app.MetadataSource = (*Client)(nil)

// Client resolves token metadata against the chain and keeps
// resolved assets in the shared registry.
type Client struct {
	chainID  uint64
	caller   chainApp.ContractCaller
	registry *asset.Registry
	tokenABI abi.ABI
	log      logger.LoggerInterface
}

// NewClient creates an ERC20 client.
func NewClient(chainID uint64, caller chainApp.ContractCaller, registry *asset.Registry, log logger.LoggerInterface) (*Client, error) {
	tokenABI, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	return &Client{
		chainID:  chainID,
		caller:   caller,
		registry: registry,
		tokenABI: tokenABI,
		log:      log,
	}, nil
}

// Resolve returns the asset for a token address, reading metadata
// from the contract on first sight. A token with broken metadata
// calls still resolves: the symbol falls back to a placeholder
// derived from the address and decimals default to 18.
func (c *Client) Resolve(ctx context.Context, addr common.Address) (*asset.Asset, error) {
	if a, ok := c.registry.GetToken(c.chainID, addr); ok {
		return a, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol, okSymbol := c.readString(ctx, addr, "symbol")
	if !okSymbol {
		symbol = placeholderSymbol(addr)
		c.log.Warn(ctx, "token symbol unreadable, using placeholder",
			"token", addr.Hex(), "symbol", symbol)
	}

	name, _ := c.readString(ctx, addr, "name")

	decimals, ok := c.readDecimals(ctx, addr)
	if !ok {
		decimals = defaultDecimals
		c.log.Warn(ctx, "token decimals unreadable, assuming 18", "token", addr.Hex())
	}

	a := asset.NewAssetWithName(asset.NewTokenAssetID(c.chainID, addr), symbol, name, decimals)
	return c.registry.GetOrRegister(a), nil
}

// BalanceOf returns the token balance held by an address.
func (c *Client) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	callData, err := c.tokenABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf: %w", err)
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("balanceOf %s at %s", holder.Hex(), token.Hex()))
	}

	outputs, err := c.tokenABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balanceOf: %w", err)
	}
	return outputs[0].(*big.Int), nil
}

func (c *Client) readString(ctx context.Context, token common.Address, method string) (string, bool) {
	callData, err := c.tokenABI.Pack(method)
	if err != nil {
		return "", false
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil || len(result) == 0 {
		return "", false
	}

	outputs, err := c.tokenABI.Unpack(method, result)
	if err != nil {
		return "", false
	}
	s, ok := outputs[0].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (c *Client) readDecimals(ctx context.Context, token common.Address) (uint8, bool) {
	callData, err := c.tokenABI.Pack("decimals")
	if err != nil {
		return 0, false
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil || len(result) == 0 {
		return 0, false
	}

	outputs, err := c.tokenABI.Unpack("decimals", result)
	if err != nil {
		return 0, false
	}
	d, ok := outputs[0].(uint8)
	if !ok || d > 30 {
		return 0, false
	}
	return d, true
}

func placeholderSymbol(addr common.Address) string {
	return "T-" + strings.ToUpper(hex.EncodeToString(addr.Bytes()[:4]))
}
