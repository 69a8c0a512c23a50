// Package pricefeed streams advisory mid prices from a Binance-style
// ticker feed. Prices are display-only; swap quoting never depends on
// them.
package pricefeed

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// StreamEvent is the combined-stream wrapper. The stream name carries
// the symbol, the payload the ticker.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTickerEvent is the best bid/ask update for one symbol.
type BookTickerEvent struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// Mid returns the bid/ask midpoint.
func (e *BookTickerEvent) Mid() (decimal.Decimal, error) {
	bid, err := decimal.NewFromString(e.BidPrice)
	if err != nil {
		return decimal.Zero, err
	}
	ask, err := decimal.NewFromString(e.AskPrice)
	if err != nil {
		return decimal.Zero, err
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
}

// TickerSnapshot is the REST bookTicker response, used when the stream
// has gone quiet.
type TickerSnapshot struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// Mid returns the bid/ask midpoint.
func (s *TickerSnapshot) Mid() (decimal.Decimal, error) {
	bid, err := decimal.NewFromString(s.BidPrice)
	if err != nil {
		return decimal.Zero, err
	}
	ask, err := decimal.NewFromString(s.AskPrice)
	if err != nil {
		return decimal.Zero, err
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
}

// BookTickerStream returns the stream name for a symbol.
func BookTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@bookTicker"
}

// streamSymbol extracts the uppercase symbol from a stream name like
// "ethusdc@bookTicker".
func streamSymbol(stream string) string {
	name, _, ok := strings.Cut(stream, "@")
	if !ok {
		return ""
	}
	return strings.ToUpper(name)
}
