package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/gobulge/pointer"
)

// Context wraps a GLFW window and tracks whether the cursor is inside it.
type Context struct {
	window       *glfw.Window
	inside       bool
	keyCallbacks map[glfw.Key]func()
}

// New creates a GL 4.1 core window. A hidden window still owns a context,
// which record mode renders into offscreen.
func New(width, height int, title string, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.TransparentFramebuffer, glfw.False)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetCursorEnterCallback(func(w *glfw.Window, entered bool) {
		c.inside = entered
	})
	return c, nil
}

// RegisterKeyCallback runs f on the render thread when key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

// Pointer implements graphics.Context.
func (c *Context) Pointer() pointer.Sample {
	if c.window == nil || !c.inside {
		return pointer.Sample{}
	}
	winWidth, winHeight := c.window.GetSize()
	cursorX, cursorY := c.window.GetCursorPos()
	return Normalize(cursorX, cursorY, winWidth, winHeight)
}

// Normalize maps window coordinates (origin top-left, y down) to [-1,1]²
// with y up. Positions outside the window are invalid.
func Normalize(x, y float64, width, height int) pointer.Sample {
	if width <= 0 || height <= 0 || x < 0 || y < 0 || x > float64(width) || y > float64(height) {
		return pointer.Sample{}
	}
	return pointer.At(
		float32(x/float64(width)*2-1),
		float32(1-y/float64(height)*2),
	)
}

func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
