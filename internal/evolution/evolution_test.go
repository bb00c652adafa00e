package evolution

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/guild-ecology/internal/fitness"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/observer"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func population(ids ...string) []*observer.Observer {
	out := make([]*observer.Observer, len(ids))
	for i, id := range ids {
		out[i] = observer.New(id, observer.DefaultLinearStrategy())
	}
	return out
}

func TestSelectEliteOrdersByFitness(t *testing.T) {
	pop := population("a", "b", "c", "d")
	scores := map[string]fitness.Score{
		"a": {Value: 0.2},
		"b": {Value: 0.9, Best: 17},
		"c": {Value: 0.5},
		"d": {Value: 0.9},
	}

	got := IDs(SelectElite(pop, scores, 3))
	if diff := cmp.Diff([]string{"b", "d", "c"}, got); diff != "" {
		t.Fatalf("elite order mismatch (-want +got):\n%s", diff)
	}

	top := SelectElite(pop, scores, 1)
	if top[0].Best != 17 || top[0].Fitness != 0.9 {
		t.Fatalf("unexpected elite %+v", top[0])
	}
}

func TestSelectEliteLength(t *testing.T) {
	pop := population("a", "b")
	if n := len(SelectElite(pop, nil, 5)); n != 2 {
		t.Fatalf("expected 2 elites, got %d", n)
	}
	if n := len(SelectElite(pop, nil, 0)); n != 0 {
		t.Fatalf("expected no elites, got %d", n)
	}
	// unscored observers tie at zero and keep population order
	if diff := cmp.Diff([]string{"a", "b"}, IDs(SelectElite(pop, nil, 2))); diff != "" {
		t.Fatalf("tie order mismatch:\n%s", diff)
	}
}

func TestMutateIdentityAndGenome(t *testing.T) {
	m := NewMutator(seeded(1))
	parent := observer.New("g-obs0", observer.DefaultLinearStrategy())
	parent.Genome = observer.Genome{1, 2, 3, 4, 5, 6, 7, 8}

	c1 := m.Mutate(parent, 0)
	c2 := m.Mutate(c1, 0)

	if c1.ID != "g-obs0-m1" || c2.ID != "g-obs0-m2" {
		t.Fatalf("unexpected ids %s, %s", c1.ID, c2.ID)
	}
	if c2.Lineage != "g-obs0" || c2.Generation != 2 {
		t.Fatalf("unexpected lineage/generation %s/%d", c2.Lineage, c2.Generation)
	}
	if c1.Genome != parent.Genome {
		t.Fatal("rate 0 must copy the genome")
	}

	full := m.Mutate(parent, 1)
	for i := range full.Genome {
		d := full.Genome[i] - parent.Genome[i]
		if d != 1 && d != -1 {
			t.Fatalf("gene %d moved by %d", i, d)
		}
	}
	if parent.Genome != (observer.Genome{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatal("parent genome mutated")
	}
}

func TestMutateIsReproducible(t *testing.T) {
	parent := observer.New("p", observer.DefaultLinearStrategy())
	run := func() []observer.Genome {
		m := NewMutator(seeded(42))
		var out []observer.Genome
		for i := 0; i < 10; i++ {
			out = append(out, m.Mutate(parent, 0.3).Genome)
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Fatalf("same seed diverged:\n%s", diff)
	}
}

func TestReproduce(t *testing.T) {
	pop := population("a", "b", "c")
	elites := SelectElite(pop, map[string]fitness.Score{"c": {Value: 1}, "a": {Value: 0.5}}, 2)
	m := NewMutator(seeded(7))

	next := m.Reproduce(elites, 8, 2, 0.1)
	if len(next) != 8 {
		t.Fatalf("expected 8 observers, got %d", len(next))
	}
	if next[0] != elites[0].Observer || next[1] != elites[1].Observer {
		t.Fatal("elites must lead the population verbatim")
	}
	seen := map[string]bool{}
	for _, o := range next {
		if seen[o.ID] {
			t.Fatalf("duplicate id %s", o.ID)
		}
		seen[o.ID] = true
	}
	for _, o := range next[2:] {
		if o.Lineage != "a" && o.Lineage != "c" {
			t.Fatalf("mutant %s not descended from an elite", o.ID)
		}
	}
}

func TestReproduceEdgeCases(t *testing.T) {
	m := NewMutator(seeded(3))
	if got := m.Reproduce(nil, 5, 2, 0.1); got != nil {
		t.Fatalf("expected nil for empty elites, got %d observers", len(got))
	}

	elites := SelectElite(population("a", "b", "c"), nil, 3)
	small := m.Reproduce(elites, 2, 5, 0.1)
	if len(small) != 2 || small[0].ID != "a" || small[1].ID != "b" {
		t.Fatalf("expected the two leading elites, got %v", small)
	}

	none := m.Reproduce(elites, 4, 0, 0.1)
	for _, o := range none {
		if o.Generation != 1 {
			t.Fatalf("expected only mutants, got %s", o.ID)
		}
	}
}

func TestMutateBasis(t *testing.T) {
	u := hilbert.DefaultUniverse()
	basis, _ := u.Basis(2, 3, 5, 7, 11)

	if got := MutateBasis(seeded(1), basis, u, 0); !got.Equal(basis) {
		t.Fatalf("prob 0 changed basis: %v", got)
	}

	got := MutateBasis(seeded(1), basis, u, 1)
	if len(got) != len(basis) {
		t.Fatalf("basis length changed: %v", got)
	}
	changed := 0
	for k := range got {
		if got[k] != basis[k] {
			changed++
		}
	}
	if changed != 1 {
		t.Fatalf("expected one swapped position, got %d", changed)
	}
	if got.Mask().Count() != len(got) {
		t.Fatalf("swap introduced a duplicate: %v", got)
	}
	if basis.Equal(got) || !basis.Equal(hilbert.Basis{0, 1, 2, 3, 4}) {
		t.Fatal("input basis mutated")
	}

	if again := MutateBasis(seeded(1), basis, u, 1); !again.Equal(got) {
		t.Fatalf("same seed diverged: %v vs %v", got, again)
	}

	full := u.Full()
	if got := MutateBasis(seeded(1), full, u, 1); !got.Equal(full) {
		t.Fatal("full basis has nothing to swap in")
	}
}
