// Package txhistory summarizes on-chain activity for Ethereum addresses as
// a contextual signal.
package txhistory

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// ChainReader is the slice of the Ethereum RPC surface this provider needs.
// *ethclient.Client satisfies it.
type ChainReader interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to an Ethereum RPC endpoint.
func Dial(rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc: %w", err)
	}
	return client, nil
}

// Provider reads transaction history summaries from the chain. A nil reader
// means no RPC endpoint is configured and the signal stays absent.
type Provider struct {
	reader ChainReader
}

// NewProvider creates a tx_history signal provider.
func NewProvider(reader ChainReader) *Provider {
	return &Provider{reader: reader}
}

func (p *Provider) Kind() signal.Kind { return signal.KindTxHistory }

func (p *Provider) AppliesTo(t entity.Type) bool { return t == entity.TypeAddress }

func (p *Provider) Timeout() time.Duration { return 5 * time.Second }

// Check summarizes the address's on-chain footprint at the latest block.
func (p *Provider) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	if p.reader == nil {
		return nil, signal.ErrUnconfigured
	}
	// Only EVM addresses can be read over this RPC surface.
	if e.Chain != entity.ChainEthereum || !common.IsHexAddress(e.Normalized) {
		return nil, signal.ErrUnconfigured
	}

	addr := common.HexToAddress(e.Normalized)

	nonce, err := p.reader.NonceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}
	balance, err := p.reader.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	code, err := p.reader.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read code: %w", err)
	}

	return &signal.TxHistoryResult{
		Active:     nonce > 0 || balance.Sign() > 0,
		TxCount:    nonce,
		Balance:    weiToEther(balance),
		IsContract: len(code) > 0,
	}, nil
}

// weiToEther renders a wei amount as a decimal ether string, trailing
// zeros trimmed.
func weiToEther(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(params.Ether))
	s := f.Text('f', 18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
