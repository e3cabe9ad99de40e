package widget

import (
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/janekbaraniewski/tokencat/internal/usage"
)

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, 350*time.Millisecond, FrameInterval(usage.CatIdle))
	assert.Equal(t, 150*time.Millisecond, FrameInterval(usage.CatActive))
	assert.Equal(t, 400*time.Millisecond, FrameInterval(usage.CatModerate))
	assert.Equal(t, 800*time.Millisecond, FrameInterval(usage.CatStrained))
	assert.Equal(t, 1200*time.Millisecond, FrameInterval(usage.CatExhausted))
	assert.Equal(t, 350*time.Millisecond, FrameInterval(usage.CatState(99)))
}

func TestCatFrames_StableWidth(t *testing.T) {
	for state, frames := range catFrames {
		want := ansi.StringWidth(frames[0][0])
		for i, frame := range frames {
			assert.Len(t, frame, 3, "%s frame %d", state, i)
			for _, line := range frame {
				assert.Equal(t, want, ansi.StringWidth(line), "%s frame %d: %q", state, i, line)
			}
		}
	}
}

func TestCatFrame_Wraps(t *testing.T) {
	n := len(catFrames[usage.CatActive])
	assert.Equal(t, catFrame(usage.CatActive, 0), catFrame(usage.CatActive, n))
}
