package broker

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
)

// ErrNoSide is returned when an action has no execution side (flat or hold).
var ErrNoSide = errors.New("action has no execution side")

// ErrReservedOrder is returned for the reserved order-type encoding.
var ErrReservedOrder = errors.New("reserved order type")

// #region config
// Config parameterizes the paper venue.
type Config struct {
	Symbol      string
	FeeRate     float64 // fraction of notional per fill
	ImpactAlpha float64 // taker impact coefficient
	ImpactBeta  float64 // taker impact exponent
	SpreadBps   float64 // assumed spread when the bar has no book
	UnitSize    float64 // instrument units per size step
}

// DefaultConfig returns the BTCUSDT paper venue.
func DefaultConfig() Config {
	return Config{
		Symbol:      "BTCUSDT",
		FeeRate:     0.0004,
		ImpactAlpha: 0.5,
		ImpactBeta:  0.6,
		SpreadBps:   1.0,
		UnitSize:    0.002,
	}
}

// Sizes returns the bucket→quantity table: bucket b trades (b+1)·UnitSize.
func (c Config) Sizes() action.SizeTable {
	var t action.SizeTable
	for b := range t {
		t[b] = float64(b+1) * c.UnitSize
	}
	return t
}

// #endregion config

// #region orders
// Liquidity marks whether a fill added or removed liquidity.
type Liquidity string

const (
	Maker Liquidity = "maker"
	Taker Liquidity = "taker"
)

// TIF is the venue time-in-force for an order.
type TIF string

const (
	TIFGTC      TIF = "GTC"
	TIFIOC      TIF = "IOC"
	TIFPostOnly TIF = "PO"
)

// Order is the venue order an action routed to.
type Order struct {
	ID     string
	TS     time.Time
	Symbol string
	Price  float64 // reference price
	Qty    float64
	Side   action.OrderSide
	Type   action.OrdType
	TIF    TIF
	Action action.Code
}

// Fill is one execution against an order.
type Fill struct {
	ID        string
	OrderID   string
	TS        time.Time
	Price     float64
	Qty       float64
	Fee       float64
	Liquidity Liquidity
}

// Execution is an order and whatever filled.
type Execution struct {
	Order Order
	Fills []Fill
}

// Filled reports whether any quantity traded.
func (e Execution) Filled() bool { return len(e.Fills) > 0 }

// Outcome is the P&L view of an execution, marked to the bar close.
type Outcome struct {
	PnL              float64
	Fee              float64
	Slippage         float64 // signed, against the bar mid
	InventoryPenalty float64
}

// Net is PnL less fee and inventory penalty.
func (o Outcome) Net() float64 { return o.PnL - o.Fee - o.InventoryPenalty }

// #endregion orders
