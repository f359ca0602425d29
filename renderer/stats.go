package renderer

import (
	"time"

	"github.com/loov/hrtime"
)

// FrameStats accumulates CPU-side frame times measured around Render.
type FrameStats struct {
	Frames uint64
	Last   time.Duration
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
}

// Mean is the average frame time, or zero before the first frame.
func (s FrameStats) Mean() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

type frameTimer struct {
	stats FrameStats
	start time.Duration
}

func (t *frameTimer) begin() {
	t.start = hrtime.Now()
}

func (t *frameTimer) end() {
	elapsed := hrtime.Since(t.start)

	s := &t.stats
	s.Frames++
	s.Last = elapsed
	s.Total += elapsed
	if s.Frames == 1 || elapsed < s.Min {
		s.Min = elapsed
	}
	if elapsed > s.Max {
		s.Max = elapsed
	}
}
