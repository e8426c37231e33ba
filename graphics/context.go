package graphics

import "github.com/richinsley/gobulge/pointer"

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// Pointer returns the cursor normalized to [-1,1]² with y up. The sample
	// is invalid while the cursor is outside the window.
	Pointer() pointer.Sample
}
