package nav

import "math"

// Rect is a section's vertical extent relative to the viewport top, in
// pixels, as reported by getBoundingClientRect.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// ScrollConfig tunes scroll-to-URL synchronisation. The same values are
// handed to the browser script so both sides agree.
type ScrollConfig struct {
	AreaWeight   float64 `json:"areaWeight"`
	CenterWeight float64 `json:"centerWeight"`
	MinScore     float64 `json:"minScore"`
	DebounceMS   int     `json:"debounceMs"`
	// ProgressOffset is the distance from the viewport top at which a
	// section counts as reached for the progress bar.
	ProgressOffset float64 `json:"progressOffset"`
}

// DefaultScrollConfig returns the tuning used by the site.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		AreaWeight:     0.7,
		CenterWeight:   0.3,
		MinScore:       0.25,
		DebounceMS:     100,
		ProgressOffset: 100,
	}
}

// Score rates how visible a section is. The visible fraction is measured
// against whichever is smaller, the section or the viewport, so a section
// taller than the screen can still reach 1. Proximity is 1 when the visible
// part is centred in the viewport and falls to 0 at the edges.
func Score(r Rect, viewport float64, cfg ScrollConfig) float64 {
	height := r.Bottom - r.Top
	if height <= 0 || viewport <= 0 {
		return 0
	}
	top := math.Max(r.Top, 0)
	bottom := math.Min(r.Bottom, viewport)
	visible := bottom - top
	if visible <= 0 {
		return 0
	}

	fraction := visible / math.Min(height, viewport)
	half := viewport / 2
	distance := math.Abs((top+bottom)/2-half) / half
	proximity := 1 - math.Min(distance, 1)

	return cfg.AreaWeight*math.Min(fraction, 1) + cfg.CenterWeight*proximity
}

// MostVisible returns the index and score of the best-scoring section, or
// -1 when nothing is visible. Ties go to the lower index.
func MostVisible(rects []Rect, viewport float64, cfg ScrollConfig) (int, float64) {
	best, bestScore := -1, 0.0
	for i, r := range rects {
		if s := Score(r, viewport, cfg); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// Tracker holds the scroll-derived state of one page: the tab last written
// to the URL and the one-shot flag set by a programmatic jump.
type Tracker struct {
	cfg          ScrollConfig
	active       int
	programmatic bool
}

// NewTracker returns a tracker whose URL currently points at tab initial.
func NewTracker(cfg ScrollConfig, initial int) *Tracker {
	return &Tracker{cfg: cfg, active: initial}
}

// Active returns the tab index last applied to the URL.
func (t *Tracker) Active() int { return t.active }

// JumpTo records a programmatic scroll to tab i (URL to scroll). When the
// page moved, the next Observe call is swallowed so the handler does not
// overwrite the URL it was just given. A jump that did not move the page
// produces no scroll event, so nothing is swallowed.
func (t *Tracker) JumpTo(i int, moved bool) {
	t.active = i
	t.programmatic = moved
}

// Observe processes one (debounced) scroll measurement and reports the tab
// to show in the URL and whether it changed.
func (t *Tracker) Observe(rects []Rect, viewport float64) (int, bool) {
	if t.programmatic {
		t.programmatic = false
		return t.active, false
	}
	i, score := MostVisible(rects, viewport, t.cfg)
	if i < 0 || score < t.cfg.MinScore || i == t.active {
		return t.active, false
	}
	t.active = i
	return i, true
}

// ProgressToNext returns how far (0..1) the reader is from the section
// currently reached toward the next one.
func ProgressToNext(rects []Rect, cfg ScrollConfig) float64 {
	if len(rects) == 0 {
		return 0
	}
	current := 0
	for i, r := range rects {
		if r.Top <= cfg.ProgressOffset {
			current = i
		}
	}
	if current >= len(rects)-1 {
		return 1
	}
	cur, next := rects[current], rects[current+1]
	scrolled := math.Max(0, -cur.Top)
	total := (cur.Bottom - cur.Top) + math.Max(0, next.Top-cfg.ProgressOffset)
	if total <= 0 {
		return 1
	}
	return math.Min(1, scrolled/total)
}
