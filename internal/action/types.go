package action

import "errors"

// #region layout
// Code is a 32-bit action. Layout (LSB→MSB):
//
//	 0..1   side         00 flat, 01 long, 10 short, 11 hold
//	 2..4   size bucket  0..7
//	 5..6   order type   00 market, 01 post-only, 10 IOC, 11 reserved
//	 7..9   TIF bucket   0..7
//	10..13  bracket id   0..15
//	14..31  refinement   18 bits
type Code uint32

const (
	sideShift       = 0
	sizeShift       = 2
	ordShift        = 5
	tifShift        = 7
	bracketShift    = 10
	RefinementShift = 14

	sideMask    = 0b11
	sizeMask    = 0b111
	ordMask     = 0b11
	tifMask     = 0b111
	bracketMask = 0b1111

	// RefinementBits is the width of the refinement field.
	RefinementBits = 18
	// RefinementMask masks a value to the refinement width (0x3FFFF).
	RefinementMask = 1<<RefinementBits - 1
	// LowMask covers side, size, order type, TIF and bracket (bits 0..13).
	LowMask = 1<<RefinementShift - 1
)

// #endregion layout

// #region enums
// Side is the raw 2-bit side field.
type Side uint8

const (
	SideFlat  Side = 0b00
	SideLong  Side = 0b01
	SideShort Side = 0b10
	SideHold  Side = 0b11
)

func (s Side) String() string {
	switch s & sideMask {
	case SideLong:
		return "long"
	case SideShort:
		return "short"
	case SideHold:
		return "hold"
	default:
		return "flat"
	}
}

// OrdType is the raw 2-bit order-type field.
type OrdType uint8

const (
	OrdMarket   OrdType = 0b00
	OrdPostOnly OrdType = 0b01
	OrdIOC      OrdType = 0b10
	ordReserved OrdType = 0b11
)

func (o OrdType) String() string {
	switch o & ordMask {
	case OrdMarket:
		return "market"
	case OrdPostOnly:
		return "post-only"
	case OrdIOC:
		return "ioc"
	default:
		return "reserved"
	}
}

// Valid reports whether o is a defined order type.
func (o OrdType) Valid() bool { return o <= OrdIOC }

// OrderSide is the execution side an action maps to.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
	OrderNone OrderSide = "none"
)

// Sign returns +1 for buy, -1 for sell and 0 otherwise.
func (s OrderSide) Sign() float64 {
	switch s {
	case OrderBuy:
		return 1
	case OrderSell:
		return -1
	}
	return 0
}

// #endregion enums

// #region fields
// Fields is the decoded view of a Code.
type Fields struct {
	Side       Side
	SizeBucket uint8
	Ord        OrdType
	TIF        uint8
	Bracket    uint8
	Refinement uint32
}

// SizeTable maps size buckets to instrument units.
type SizeTable [8]float64

// ErrFieldRange reports a field value wider than its bit width.
var ErrFieldRange = errors.New("action field out of range")

// #endregion fields
