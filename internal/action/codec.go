package action

import "fmt"

// #region decode
// Decode splits n into its fields. Every 32-bit value decodes.
func Decode(n Code) Fields {
	return Fields{
		Side:       Side(n >> sideShift & sideMask),
		SizeBucket: uint8(n >> sizeShift & sizeMask),
		Ord:        OrdType(n >> ordShift & ordMask),
		TIF:        uint8(n >> tifShift & tifMask),
		Bracket:    uint8(n >> bracketShift & bracketMask),
		Refinement: uint32(n >> RefinementShift & RefinementMask),
	}
}

// #endregion decode

// #region encode
// Encode packs f into a Code, masking every field to its width.
func Encode(f Fields) Code {
	var n Code
	n |= Code(f.Side&sideMask) << sideShift
	n |= Code(f.SizeBucket&sizeMask) << sizeShift
	n |= Code(f.Ord&ordMask) << ordShift
	n |= Code(f.TIF&tifMask) << tifShift
	n |= Code(f.Bracket&bracketMask) << bracketShift
	n |= Code(f.Refinement&RefinementMask) << RefinementShift
	return n
}

// EncodeStrict is Encode for callers that want malformed fields rejected
// instead of truncated.
func EncodeStrict(f Fields) (Code, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return Encode(f), nil
}

// Validate reports the first field that does not fit its documented range.
func (f Fields) Validate() error {
	switch {
	case f.Side > sideMask:
		return fmt.Errorf("side %d: %w", f.Side, ErrFieldRange)
	case f.SizeBucket > sizeMask:
		return fmt.Errorf("size bucket %d: %w", f.SizeBucket, ErrFieldRange)
	case !f.Ord.Valid():
		return fmt.Errorf("order type %d: %w", f.Ord, ErrFieldRange)
	case f.TIF > tifMask:
		return fmt.Errorf("tif bucket %d: %w", f.TIF, ErrFieldRange)
	case f.Bracket > bracketMask:
		return fmt.Errorf("bracket %d: %w", f.Bracket, ErrFieldRange)
	case f.Refinement > RefinementMask:
		return fmt.Errorf("refinement %#x: %w", f.Refinement, ErrFieldRange)
	}
	return nil
}

// #endregion encode

// #region accessors
// SideOf maps the side bits to an execution side. Flat and hold both map to
// OrderNone.
func SideOf(n Code) OrderSide {
	switch Side(n & sideMask) {
	case SideLong:
		return OrderBuy
	case SideShort:
		return OrderSell
	}
	return OrderNone
}

// WithRefinement replaces bits 14..31 of n with the low 18 bits of m.
func WithRefinement(n Code, m uint32) Code {
	return n&LowMask | Code(m&RefinementMask)<<RefinementShift
}

// Low returns the lower 14 bits (everything except the refinement).
func (n Code) Low() Code { return n & LowMask }

// Refinement returns the 18-bit refinement field.
func (n Code) Refinement() uint32 { return uint32(n >> RefinementShift) }

// Quantity looks up the unit size for n's size bucket.
func Quantity(n Code, table SizeTable) float64 {
	return table[Decode(n).SizeBucket]
}

func (n Code) String() string {
	d := Decode(n)
	return fmt.Sprintf("%s size=%d %s tif=%d bracket=%d refinement=%#x",
		d.Side, d.SizeBucket, d.Ord, d.TIF, d.Bracket, d.Refinement)
}

// #endregion accessors
