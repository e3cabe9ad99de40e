package widget

import (
	"time"

	"github.com/janekbaraniewski/tokencat/internal/usage"
)

// catFrames holds the animation loop for each mascot state. Every frame is
// three lines of equal width so the layout doesn't jump between frames.
var catFrames = map[usage.CatState][][]string{
	usage.CatIdle: {
		{` /\_/\   z`, `( -.- )   `, ` (")_(")  `},
		{` /\_/\  Z `, `( -.- )   `, ` (")_(")  `},
		{` /\_/\ z  `, `( -.- )   `, ` (")_(")  `},
	},
	usage.CatActive: {
		{` /\_/\    `, `( o.o )   `, ` /|__|\   `},
		{` /\_/\    `, `( o.o )   `, ` \|__|/   `},
	},
	usage.CatModerate: {
		{` /\_/\    `, `( o.o )   `, ` /|__|\ ~ `},
		{` /\_/\    `, `( -.o )   `, ` \|__|/  ~`},
		{` /\_/\    `, `( o.o )   `, ` /|__|\ ~ `},
		{` /\_/\    `, `( o.- )   `, ` \|__|/  ~`},
	},
	usage.CatStrained: {
		{` /\_/\  ; `, `( >.< )   `, ` /|__|\   `},
		{` /\_/\ ;  `, `( >_< )   `, ` \|__|/   `},
	},
	usage.CatExhausted: {
		{` /\_/\    `, `( x.x )   `, ` (")_(") _`},
		{` /\_/\    `, `( X_X )   `, ` (")_(")_ `},
	},
}

var frameIntervals = map[usage.CatState]time.Duration{
	usage.CatIdle:      350 * time.Millisecond,
	usage.CatActive:    150 * time.Millisecond,
	usage.CatModerate:  400 * time.Millisecond,
	usage.CatStrained:  800 * time.Millisecond,
	usage.CatExhausted: 1200 * time.Millisecond,
}

// FrameInterval is how long each animation frame stays up in state.
func FrameInterval(state usage.CatState) time.Duration {
	if d, ok := frameIntervals[state]; ok {
		return d
	}
	return frameIntervals[usage.CatIdle]
}

// catFrame returns frame n of state's loop, wrapping around.
func catFrame(state usage.CatState, n int) []string {
	frames, ok := catFrames[state]
	if !ok {
		frames = catFrames[usage.CatIdle]
	}
	return frames[n%len(frames)]
}
