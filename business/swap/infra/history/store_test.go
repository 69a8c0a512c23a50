package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

func newTestStore(t *testing.T, cap int) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), cap, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func record(pair, hash string) domain.Record {
	return domain.Record{
		Pair:       pair,
		FromSymbol: "ETH",
		ToSymbol:   "USDC",
		FromAmount: "1",
		ToAmount:   "3000",
		TxHash:     hash,
		Status:     domain.TxStateSuccess,
	}
}

func TestStore_AppendAndList(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()
	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")

	records, err := store.List(ctx, wallet)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("fresh wallet has %d records", len(records))
	}

	if err := store.Append(ctx, wallet, record("ETH-USDC", "0x01")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, wallet, record("ETH-DAI", "0x02")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err = store.List(ctx, wallet)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Pair != "ETH-DAI" {
		t.Errorf("newest record first: got %s", records[0].Pair)
	}
}

func TestStore_CapDropsOldest(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()
	wallet := common.HexToAddress("0x2222222222222222222222222222222222222222")

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, wallet, record("ETH-USDC", fmt.Sprintf("0x%02d", i))); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	records, err := store.List(ctx, wallet)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want cap 3", len(records))
	}
	if records[0].TxHash != "0x04" || records[2].TxHash != "0x02" {
		t.Errorf("wrong window kept: %s .. %s", records[0].TxHash, records[2].TxHash)
	}
}

func TestStore_WalletsAreIsolated(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()
	a := common.HexToAddress("0x3333333333333333333333333333333333333333")
	b := common.HexToAddress("0x4444444444444444444444444444444444444444")

	if err := store.Append(ctx, a, record("ETH-USDC", "0x0a")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := store.List(ctx, b)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("wallet b sees %d foreign records", len(records))
	}
}

func TestStore_CorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 10, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	wallet := common.HexToAddress("0x5555555555555555555555555555555555555555")

	path := filepath.Join(dir, strings.ToLower(wallet.Hex())+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.List(context.Background(), wallet); err == nil {
		t.Fatal("expected decode error")
	}
}
