package txhistory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

type fakeReader struct {
	nonce   uint64
	balance *big.Int
	code    []byte
	err     error
}

func (f *fakeReader) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return f.nonce, f.err
}

func (f *fakeReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if f.balance == nil {
		return big.NewInt(0), f.err
	}
	return f.balance, f.err
}

func (f *fakeReader) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return f.code, f.err
}

func ethEntity(addr string) entity.Entity {
	return entity.Entity{
		Value:      addr,
		Type:       entity.TypeAddress,
		Normalized: addr,
		Chain:      entity.ChainEthereum,
	}
}

const addr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestActiveWallet(t *testing.T) {
	p := NewProvider(&fakeReader{
		nonce:   42,
		balance: big.NewInt(1500000000000000000), // 1.5 ETH
	})

	res, err := p.Check(context.Background(), ethEntity(addr))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	tx := res.(*signal.TxHistoryResult)
	if !tx.Active || tx.TxCount != 42 || tx.IsContract {
		t.Errorf("result = %+v", tx)
	}
	if tx.Balance != "1.5" {
		t.Errorf("balance = %q, want 1.5", tx.Balance)
	}
}

func TestDormantAddress(t *testing.T) {
	p := NewProvider(&fakeReader{})

	res, err := p.Check(context.Background(), ethEntity(addr))
	if err != nil {
		t.Fatal(err)
	}
	tx := res.(*signal.TxHistoryResult)
	if tx.Active {
		t.Errorf("zero nonce and balance should be inactive: %+v", tx)
	}
	if tx.Balance != "0" {
		t.Errorf("balance = %q, want 0", tx.Balance)
	}
}

func TestContractDetection(t *testing.T) {
	p := NewProvider(&fakeReader{
		nonce: 1,
		code:  []byte{0x60, 0x80},
	})

	res, err := p.Check(context.Background(), ethEntity(addr))
	if err != nil {
		t.Fatal(err)
	}
	if !res.(*signal.TxHistoryResult).IsContract {
		t.Error("code at address should flag IsContract")
	}
}

func TestUnconfiguredWithoutReader(t *testing.T) {
	p := NewProvider(nil)

	_, err := p.Check(context.Background(), ethEntity(addr))
	if !errors.Is(err, signal.ErrUnconfigured) {
		t.Errorf("err = %v, want ErrUnconfigured", err)
	}
}

func TestNonEVMAddressSkipped(t *testing.T) {
	p := NewProvider(&fakeReader{nonce: 5})

	btc := entity.Entity{
		Value:      "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		Type:       entity.TypeAddress,
		Normalized: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		Chain:      entity.ChainBitcoin,
	}
	_, err := p.Check(context.Background(), btc)
	if !errors.Is(err, signal.ErrUnconfigured) {
		t.Errorf("err = %v, want ErrUnconfigured for non-EVM chain", err)
	}
}

func TestRPCErrorPropagates(t *testing.T) {
	p := NewProvider(&fakeReader{err: errors.New("rpc timeout")})

	if _, err := p.Check(context.Background(), ethEntity(addr)); err == nil {
		t.Fatal("expected error from failing reader")
	}
}

func TestWeiToEther(t *testing.T) {
	cases := []struct {
		wei  string
		want string
	}{
		{"0", "0"},
		{"1000000000000000000", "1"},
		{"1500000000000000000", "1.5"},
		{"10000000000000000", "0.01"},
	}
	for _, tc := range cases {
		wei, _ := new(big.Int).SetString(tc.wei, 10)
		if got := weiToEther(wei); got != tc.want {
			t.Errorf("weiToEther(%s) = %q, want %q", tc.wei, got, tc.want)
		}
	}
}
