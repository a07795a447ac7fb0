// Package infura implements a gas price source backed by the Infura
// Gas API.
package infura

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// Ensure Client implements GasSource.
var _ app.GasSource = (*Client)(nil)

// feeLevel is one of the low/medium/high suggestions.
type feeLevel struct {
	SuggestedMaxFeePerGas         string `json:"suggestedMaxFeePerGas"`
	SuggestedMaxPriorityFeePerGas string `json:"suggestedMaxPriorityFeePerGas"`
}

type suggestedFees struct {
	Low               feeLevel `json:"low"`
	Medium            feeLevel `json:"medium"`
	High              feeLevel `json:"high"`
	EstimatedBaseFee  string   `json:"estimatedBaseFee"`
	NetworkCongestion float64  `json:"networkCongestion"`
}

// Client fetches gas suggestions from the Infura Gas API. First
// layer of the gas oracle; it needs an API key baked into the URL.
type Client struct {
	http httpclient.Client
	url  string
	log  logger.LoggerInterface
	cb   *circuitbreaker.CircuitBreaker[*httpclient.Response]
}

// NewClient creates an Infura gas client for the configured URL.
func NewClient(url string, log logger.LoggerInterface) (*Client, error) {
	http, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("infura-gas"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Client{
		http: http,
		url:  url,
		log:  log,
		cb:   circuitbreaker.New[*httpclient.Response](circuitbreaker.DefaultConfig("infura-gas")),
	}, nil
}

func (c *Client) Name() string { return "infura" }

// GasPrice fetches the medium fee suggestion.
func (c *Client) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	var result suggestedFees

	req := c.http.NewRequest().SetResult(&result)
	resp, err := c.cb.Execute(func() (*httpclient.Response, error) {
		return req.Get(ctx, c.url)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePriceSourceError, "infura gas request failed")
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodePriceSourceError,
			apperror.WithContext(fmt.Sprintf("infura gas status %d", resp.StatusCode)))
	}

	gwei, err := strconv.ParseFloat(result.Medium.SuggestedMaxFeePerGas, 64)
	if err != nil {
		return nil, apperror.New(apperror.CodePriceFieldMissing,
			apperror.WithContext(fmt.Sprintf("bad suggestedMaxFeePerGas %q", result.Medium.SuggestedMaxFeePerGas)))
	}

	return domain.NewGasPrice(domain.GweiToWei(gwei), c.Name()), nil
}
