package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// Record is one completed or attempted swap in the local history.
// Amounts are stored as decimal strings so the file stays readable and
// independent of asset registry state.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Pair       string    `json:"pair"`
	FromSymbol string    `json:"from_symbol"`
	ToSymbol   string    `json:"to_symbol"`
	FromAmount string    `json:"from_amount"`
	ToAmount   string    `json:"to_amount"`
	TxHash     string    `json:"tx_hash"`
	Status     TxState   `json:"status"`
	Reason     string    `json:"reason,omitempty"`
}

// NewRecord builds a history record from a swap outcome. amountOut is the
// quoted output, not the settled one; receipts do not carry it.
func NewRecord(pair Pair, amountIn, amountOut asset.Amount, hash common.Hash, status TxState, reason string) Record {
	return Record{
		Timestamp:  time.Now().UTC(),
		Pair:       pair.String(),
		FromSymbol: pair.Base.Symbol(),
		ToSymbol:   pair.Quote.Symbol(),
		FromAmount: amountIn.ToDecimalString(),
		ToAmount:   amountOut.ToDecimalString(),
		TxHash:     hash.Hex(),
		Status:     status,
		Reason:     reason,
	}
}
