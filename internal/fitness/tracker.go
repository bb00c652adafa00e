package fitness

import "github.com/danielpatrickdp/guild-ecology/internal/action"

// #region score
// Score is an observer's record over the current generation.
type Score struct {
	Value  float64     // mean LZ
	Best   action.Code // action with the highest LZ so far
	BestLZ float64
	N      int
}

// #endregion score

// #region tracker
// Tracker accumulates per-observer scores between reproduction boundaries.
type Tracker struct {
	sums   map[string]float64
	scores map[string]Score
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sums:   make(map[string]float64),
		scores: make(map[string]Score),
	}
}

// Observe folds one evaluation into its observer's score.
func (t *Tracker) Observe(e ObserverEval) {
	s := t.scores[e.ObserverID]
	if s.N == 0 || e.LZ > s.BestLZ {
		s.Best = e.Action
		s.BestLZ = e.LZ
	}
	s.N++
	t.sums[e.ObserverID] += e.LZ
	s.Value = t.sums[e.ObserverID] / float64(s.N)
	t.scores[e.ObserverID] = s
}

// Score returns the score for id; observers never seen score zero.
func (t *Tracker) Score(id string) Score {
	return t.scores[id]
}

// Scores returns a copy of every tracked score keyed by observer ID.
func (t *Tracker) Scores() map[string]Score {
	out := make(map[string]Score, len(t.scores))
	for id, s := range t.scores {
		out[id] = s
	}
	return out
}

// Retain drops every observer not in ids. Elites carried into the next
// generation keep their accumulated history.
func (t *Tracker) Retain(ids ...string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for id := range t.scores {
		if !keep[id] {
			delete(t.scores, id)
			delete(t.sums, id)
		}
	}
}

// Len returns the number of tracked observers.
func (t *Tracker) Len() int { return len(t.scores) }

// #endregion tracker
