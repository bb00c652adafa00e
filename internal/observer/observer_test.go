package observer

import (
	"testing"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
)

func TestLinearStrategySides(t *testing.T) {
	s := DefaultLinearStrategy()

	long := s.Propose(feature.Frame{Ret1s: 0.0001, Regime: feature.RegimeTrend})
	d := action.Decode(long)
	if d.Side != action.SideLong {
		t.Fatalf("expected long, got %s", d.Side)
	}
	// edge 5e-4 → floor(50) clipped to 7
	if d.SizeBucket != 7 {
		t.Fatalf("expected size 7, got %d", d.SizeBucket)
	}
	if d.Ord != action.OrdMarket {
		t.Fatalf("expected market in trend, got %s", d.Ord)
	}
	if d.TIF != 1 || d.Bracket != 3 || d.Refinement != 0 {
		t.Fatalf("unexpected fixed fields %+v", d)
	}

	short := action.Decode(s.Propose(feature.Frame{Ret1s: -0.000011, Regime: feature.RegimeChop}))
	if short.Side != action.SideShort {
		t.Fatalf("expected short, got %s", short.Side)
	}
	// edge -5.5e-5 → floor(5.5)
	if short.SizeBucket != 5 {
		t.Fatalf("expected size 5, got %d", short.SizeBucket)
	}
	if short.Ord != action.OrdPostOnly {
		t.Fatalf("expected post-only outside trend, got %s", short.Ord)
	}

	flat := action.Decode(s.Propose(feature.Frame{Ret1s: 0.000001}))
	if flat.Side != action.SideFlat || flat.SizeBucket != 0 {
		t.Fatalf("expected flat size 0, got %+v", flat)
	}
}

func TestStrategyFuncSubstitutes(t *testing.T) {
	fixed := action.Encode(action.Fields{Side: action.SideHold, SizeBucket: 2})
	o := New("custom", StrategyFunc(func(feature.Frame) action.Code { return fixed }))
	if got := o.Propose(feature.Frame{}); got != fixed {
		t.Fatalf("expected %v, got %v", fixed, got)
	}
}

func TestRefinePipeline(t *testing.T) {
	u := hilbert.DefaultUniverse()
	basis, err := u.Basis(2, 3, 5, 7, 11)
	if err != nil {
		t.Fatal(err)
	}
	lens := &Lens{Universe: u, Phase: hilbert.NewPhaseVec(basis), Basis: basis, Tau: 1.5, Gamma: hilbert.DefaultGamma}
	o := New("g-obs0", DefaultLinearStrategy())
	f := feature.Frame{Ret1s: 0.0002, Ret5s: 0.0001, Vol30s: 0.0001, Regime: feature.RegimeTrend}

	r := o.Refine(f, lens)

	if r.Proposal.Low() != r.Action.Low() {
		t.Fatalf("low bits changed: %v vs %v", r.Proposal, r.Action)
	}
	if r.Action.Refinement() != r.Measurement {
		t.Fatalf("refinement %#x != measurement %#x", r.Action.Refinement(), r.Measurement)
	}
	if !r.Projected.Basis.Equal(basis) {
		t.Fatalf("projected basis %v, want %v", r.Projected.Basis, basis)
	}
	if hilbert.Entropy(r.Collapsed) > hilbert.Entropy(r.Projected) {
		t.Fatal("collapse raised entropy")
	}

	again := o.Refine(f, lens)
	if again.Action != r.Action {
		t.Fatalf("refinement not deterministic: %v vs %v", r.Action, again.Action)
	}
}

func TestRefineIgnoresGenome(t *testing.T) {
	u := hilbert.DefaultUniverse()
	lens := &Lens{Universe: u, Basis: u.Full(), Tau: 2, Gamma: hilbert.DefaultGamma}
	f := feature.Frame{Ret1s: -0.0003, Regime: feature.RegimeChop}

	a := New("a", DefaultLinearStrategy())
	b := New("b", DefaultLinearStrategy())
	b.Genome = Genome{9, -4, 1, 0, 0, 3, 2, 7}

	if a.Refine(f, lens).Action != b.Refine(f, lens).Action {
		t.Fatal("genome leaked into the pipeline")
	}
}
