package progressui

import "strings"

// sparkline renders a text throughput chart using Unicode block
// characters over a fixed-size ring buffer of samples.
type sparkline struct {
	samples []float64
	width   int
	head    int
	count   int
	max     float64
}

var sparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func newSparkline(width int) *sparkline {
	if width <= 0 {
		width = 60
	}
	return &sparkline{samples: make([]float64, width), width: width}
}

func (s *sparkline) add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % s.width
	s.count++
	if value > s.max {
		s.max = value
	}
	if s.count%s.width == 0 {
		s.recalculateMax()
	}
}

func (s *sparkline) recalculateMax() {
	s.max = 0
	for _, v := range s.samples {
		if v > s.max {
			s.max = v
		}
	}
	if s.max < 1 {
		s.max = 1
	}
}

func (s *sparkline) render() string {
	if s.count == 0 {
		return strings.Repeat(string(sparklineChars[0]), s.width)
	}
	if s.max <= 0 {
		s.recalculateMax()
	}

	var sb strings.Builder
	sb.Grow(s.width * 3)

	numSamples := min(s.count, s.width)
	start := 0
	if s.count >= s.width {
		start = s.head
	}

	for i := 0; i < s.width; i++ {
		idx := (start + i) % s.width
		if i >= numSamples && s.count < s.width {
			sb.WriteRune(' ')
			continue
		}
		value := s.samples[idx]
		charIdx := int((value / s.max) * float64(len(sparklineChars)-1))
		if charIdx < 0 {
			charIdx = 0
		}
		if charIdx >= len(sparklineChars) {
			charIdx = len(sparklineChars) - 1
		}
		sb.WriteRune(sparklineChars[charIdx])
	}
	return sb.String()
}

func (s *sparkline) clear() {
	for i := range s.samples {
		s.samples[i] = 0
	}
	s.head, s.count, s.max = 0, 0, 0
}
