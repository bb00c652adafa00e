package feature

import "math"

// Engine turns a stream of bars into frames. It keeps only as many bars as
// the warm-up and vol window need.
type Engine struct {
	config Config
	buf    []Bar
	seen   int
}

// NewEngine creates an engine. Non-positive sizes fall back to defaults.
func NewEngine(config Config) *Engine {
	def := DefaultConfig()
	if config.Warmup <= 0 {
		config.Warmup = def.Warmup
	}
	if config.VolWindow <= 0 {
		config.VolWindow = def.VolWindow
	}
	// Returns need at least 5 bars of look-back.
	if config.Warmup < 6 {
		config.Warmup = 6
	}
	return &Engine{config: config}
}

// Update appends bar and returns a frame once warm-up is complete.
func (e *Engine) Update(bar Bar) (Frame, bool) {
	e.buf = append(e.buf, bar)
	e.seen++
	if keep := e.capacity(); len(e.buf) > keep {
		e.buf = append(e.buf[:0], e.buf[len(e.buf)-keep:]...)
	}
	if e.seen < e.config.Warmup {
		return Frame{}, false
	}

	n := len(e.buf)
	last := e.buf[n-1]
	ret1 := logReturn(e.buf[n-2].Close, last.Close)
	ret5 := logReturn(e.buf[n-6].Close, last.Close)
	vol := e.realizedVol()

	regime := RegimeChop
	switch {
	case math.Abs(ret5) > 3*vol:
		regime = RegimeShock
	case math.Abs(ret5) > vol:
		regime = RegimeTrend
	}

	return Frame{
		TS:     last.TS,
		Ret1s:  ret1,
		Ret5s:  ret5,
		Vol30s: vol,
		Regime: regime,
		Close:  last.Close,
	}, true
}

func (e *Engine) capacity() int {
	c := e.config.VolWindow + 1
	if c < 6 {
		c = 6
	}
	return c
}

// realizedVol is the RMS of the trailing log returns.
func (e *Engine) realizedVol() float64 {
	n := e.config.VolWindow
	if n > len(e.buf)-1 {
		n = len(e.buf) - 1
	}
	if n <= 1 {
		return 0
	}
	var s2 float64
	for i := len(e.buf) - n; i < len(e.buf); i++ {
		r := logReturn(e.buf[i-1].Close, e.buf[i].Close)
		s2 += r * r
	}
	return math.Sqrt(s2 / float64(n))
}

func logReturn(from, to float64) float64 {
	if from <= 0 || to <= 0 {
		return 0
	}
	return math.Log(to / from)
}
