// Package etherscan implements gas and fiat price sources backed by
// the Etherscan API.
package etherscan

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// Ensure Client implements both source ports.
var (
	_ app.GasSource  = (*Client)(nil)
	_ app.FiatSource = (*Client)(nil)
)

// envelope is the outer shape of every Etherscan response.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

type gasOracleResult struct {
	SafeGasPrice    string `json:"SafeGasPrice"`
	ProposeGasPrice string `json:"ProposeGasPrice"`
	FastGasPrice    string `json:"FastGasPrice"`
	UsdPrice        string `json:"UsdPrice"`
}

type ethPriceResult struct {
	EthUSD          string `json:"ethusd"`
	EthUSDTimestamp string `json:"ethusd_timestamp"`
}

// Client talks to the Etherscan API. It serves as one layer of both
// the gas oracle and the ETH/USD lookup.
type Client struct {
	http   httpclient.Client
	apiKey string
	log    logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[*httpclient.Response]
}

// NewClient creates an Etherscan client.
func NewClient(cfg config.SourcesConfig, log logger.LoggerInterface) (*Client, error) {
	http, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("etherscan"),
		httpclient.WithBaseURL(cfg.EtherscanBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Client{
		http:   http,
		apiKey: cfg.EtherscanAPIKey,
		log:    log,
		cb:     circuitbreaker.New[*httpclient.Response](circuitbreaker.DefaultConfig("etherscan")),
	}, nil
}

func (c *Client) Name() string { return "etherscan" }

// GasPrice fetches the proposed gas price from the gas tracker.
func (c *Client) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	var result envelope[gasOracleResult]

	if err := c.get(ctx, map[string]string{
		"module": "gastracker",
		"action": "gasoracle",
	}, &result); err != nil {
		return nil, err
	}
	if result.Status != "1" {
		return nil, apperror.New(apperror.CodePriceSourceError,
			apperror.WithContext("etherscan gasoracle: "+result.Message))
	}

	gwei, err := strconv.ParseFloat(result.Result.ProposeGasPrice, 64)
	if err != nil {
		return nil, apperror.New(apperror.CodePriceFieldMissing,
			apperror.WithContext(fmt.Sprintf("bad ProposeGasPrice %q", result.Result.ProposeGasPrice)))
	}

	return domain.NewGasPrice(domain.GweiToWei(gwei), c.Name()), nil
}

// EthPriceUSD fetches the current ETH/USD price.
func (c *Client) EthPriceUSD(ctx context.Context) (decimal.Decimal, error) {
	var result envelope[ethPriceResult]

	if err := c.get(ctx, map[string]string{
		"module": "stats",
		"action": "ethprice",
	}, &result); err != nil {
		return decimal.Zero, err
	}
	if result.Status != "1" {
		return decimal.Zero, apperror.New(apperror.CodePriceSourceError,
			apperror.WithContext("etherscan ethprice: "+result.Message))
	}

	price, err := decimal.NewFromString(result.Result.EthUSD)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodePriceFieldMissing,
			apperror.WithContext(fmt.Sprintf("bad ethusd %q", result.Result.EthUSD)))
	}

	return price, nil
}

// GasOracleFiat returns a secondary fiat source reading the gas
// oracle's UsdPrice field. It sits between the ethprice lookup and
// the static default in the fiat ladder.
func (c *Client) GasOracleFiat() app.FiatSource {
	return &gasOracleFiat{client: c}
}

type gasOracleFiat struct {
	client *Client
}

func (g *gasOracleFiat) Name() string { return "etherscan-gasoracle" }

func (g *gasOracleFiat) EthPriceUSD(ctx context.Context) (decimal.Decimal, error) {
	var result envelope[gasOracleResult]

	if err := g.client.get(ctx, map[string]string{
		"module": "gastracker",
		"action": "gasoracle",
	}, &result); err != nil {
		return decimal.Zero, err
	}
	if result.Status != "1" {
		return decimal.Zero, apperror.New(apperror.CodePriceSourceError,
			apperror.WithContext("etherscan gasoracle: "+result.Message))
	}

	price, err := decimal.NewFromString(result.Result.UsdPrice)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodePriceFieldMissing,
			apperror.WithContext(fmt.Sprintf("bad UsdPrice %q", result.Result.UsdPrice)))
	}

	return price, nil
}

func (c *Client) get(ctx context.Context, params map[string]string, result any) error {
	req := c.http.NewRequest().
		SetQueryParams(params).
		SetResult(result)
	if c.apiKey != "" {
		req.SetQueryParam("apikey", c.apiKey)
	}

	resp, err := c.cb.Execute(func() (*httpclient.Response, error) {
		return req.Get(ctx, "")
	})
	if err != nil {
		return apperror.Wrap(err, apperror.CodePriceSourceError, "etherscan request failed")
	}
	if resp.IsError() {
		return apperror.New(apperror.CodePriceSourceError,
			apperror.WithContext(fmt.Sprintf("etherscan status %d", resp.StatusCode)))
	}

	return nil
}
