package progressui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparkline_Render_EmptyIsFlat(t *testing.T) {
	s := newSparkline(10)
	out := s.render()
	assert.Len(t, []rune(out), 10)
	for _, r := range out {
		assert.Equal(t, sparklineChars[0], r)
	}
}

func TestSparkline_Add_ScalesToMax(t *testing.T) {
	s := newSparkline(4)
	s.add(1)
	s.add(2)
	s.add(4)
	out := []rune(s.render())
	assert.Equal(t, sparklineChars[len(sparklineChars)-1], out[2], "value equal to max should render the tallest bar")
}

func TestSparkline_Clear_Resets(t *testing.T) {
	s := newSparkline(4)
	s.add(5)
	s.clear()
	assert.Equal(t, 0, s.count)
	assert.Equal(t, float64(0), s.max)
}
