package ethereum

import (
	"context"

	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
)

// Ensure RPCGasSource implements GasSource.
var _ app.GasSource = (*RPCGasSource)(nil)

// RPCGasSource answers gas price lookups with eth_gasPrice through
// the provider pool. Last layer of the gas oracle: it works whenever
// the chain is reachable at all.
type RPCGasSource struct {
	reader app.ChainReader
}

// NewRPCGasSource creates an RPC-backed gas source.
func NewRPCGasSource(reader app.ChainReader) *RPCGasSource {
	return &RPCGasSource{reader: reader}
}

func (s *RPCGasSource) Name() string { return "rpc" }

// GasPrice returns the pool's gas price suggestion.
func (s *RPCGasSource) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	wei, err := s.reader.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeGasPriceUnavailable, "eth_gasPrice")
	}
	return domain.NewGasPrice(wei, s.Name()), nil
}
