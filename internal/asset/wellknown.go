package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDSepolia  = 11155111
)

// Well-known token addresses on Ethereum Mainnet
var (
	AddrWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrWBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	AddrLINK = common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA")
	AddrUNI  = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
)

// Well-known Assets on Ethereum Mainnet
var (
	ETH  = NewAssetWithName(NewNativeAssetID(ChainIDEthereum), "ETH", "Ethereum", 18)
	WETH = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrWETH), "WETH", "Wrapped Ether", 18)
	USDC = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrUSDC), "USDC", "USD Coin", 6)
	USDT = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrUSDT), "USDT", "Tether USD", 6)
	DAI  = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrDAI), "DAI", "Dai Stablecoin", 18)
	WBTC = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrWBTC), "WBTC", "Wrapped Bitcoin", 8)
	LINK = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrLINK), "LINK", "ChainLink Token", 18)
	UNI  = NewAssetWithName(NewTokenAssetID(ChainIDEthereum, AddrUNI), "UNI", "Uniswap", 18)
)

// DefaultRegistry returns a registry pre-populated with the mainnet
// tokens the scanner watches by default.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ETH)
	r.Register(WETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	r.Register(WBTC)
	r.Register(LINK)
	r.Register(UNI)

	return r
}

// NewToken creates an ERC20 token asset. Convenience for tokens
// discovered at runtime.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return NewAssetWithName(NewTokenAssetID(chainID, address), symbol, name, decimals)
}
