package eval

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

func act(side action.Side, size uint8) action.Code {
	return action.Encode(action.Fields{Side: side, SizeBucket: size})
}

func TestProxyPassesAlignedEdge(t *testing.T) {
	h := NewHarness(DefaultConfig())
	f := feature.Frame{Ret1s: 0.0001}

	res := h.Proxy(act(action.SideLong, 7), f)

	if !res.Pass {
		t.Fatalf("expected pass, got: %s", res.Reason)
	}
	if math.Abs(res.Edge-5e-4) > 1e-15 {
		t.Fatalf("expected edge 5e-4, got %v", res.Edge)
	}
	if math.Abs(res.Impact-2e-5) > 1e-15 {
		t.Fatalf("expected full-size impact 2e-5, got %v", res.Impact)
	}
}

func TestProxySignsEdgeBySide(t *testing.T) {
	h := NewHarness(DefaultConfig())
	up := feature.Frame{Ret1s: 0.0001}
	down := feature.Frame{Ret1s: -0.0001}

	if h.Proxy(act(action.SideShort, 3), up).Pass {
		t.Fatal("short against a rising edge should fail")
	}
	res := h.Proxy(act(action.SideShort, 3), down)
	if !res.Pass {
		t.Fatalf("short with a falling edge should pass: %s", res.Reason)
	}
	if res.Edge <= 0 {
		t.Fatalf("expected edge signed toward the short, got %v", res.Edge)
	}
}

func TestProxyRejectsNoSide(t *testing.T) {
	h := NewHarness(DefaultConfig())
	f := feature.Frame{Ret1s: 0.01}

	for _, s := range []action.Side{action.SideFlat, action.SideHold} {
		if res := h.Proxy(act(s, 0), f); res.Pass {
			t.Fatalf("%s should never pass", s)
		}
	}
}

func TestProxyImpactGrowsWithSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImpactK = 0.5
	h := NewHarness(cfg)
	f := feature.Frame{Ret1s: 0.0001}

	small := h.Proxy(act(action.SideLong, 0), f)
	large := h.Proxy(act(action.SideLong, 7), f)

	if small.Impact >= large.Impact {
		t.Fatalf("expected impact to grow: %v vs %v", small.Impact, large.Impact)
	}
	want := 0.5 * math.Pow(1.0/8, 0.6)
	if math.Abs(small.Impact-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, small.Impact)
	}
	if small.Pass || large.Pass {
		t.Fatal("price-scale impact should swamp a return-scale edge")
	}
}

func TestObjective(t *testing.T) {
	h := NewHarness(DefaultConfig())
	o := h.Objective(1.5, 0.1, 0.01, -0.2)
	if o != (Objective{PnL: 1.5, Fee: 0.1, InventoryPenalty: 0.01, Slippage: -0.2}) {
		t.Fatalf("unexpected objective %+v", o)
	}
}
