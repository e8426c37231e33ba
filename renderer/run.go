package renderer

import (
	"fmt"
	"time"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/loop"
	"github.com/richinsley/gobulge/pointer"
)

// Pipeline is what a frame drives: the capture service delivering textures
// and the loop producing the draw.
type Pipeline struct {
	Capture *capture.Service
	Loop    *loop.Loop
}

// Run renders to the window until it is closed. Frame errors are logged and
// never stop the loop.
func (r *Renderer) Run(p Pipeline) error {
	width, height := r.context.GetFramebufferSize()
	if err := p.Loop.Resize(width, height); err != nil {
		return err
	}

	last := r.context.Time()
	var lastErr string
	for !r.context.ShouldClose() {
		now := r.context.Time()
		dt := now - last
		last = now

		if w, h := r.context.GetFramebufferSize(); (w != width || h != height) && w > 0 && h > 0 {
			width, height = w, h
			r.onResize(p, width, height)
		}

		p.Capture.Pump()
		if err := p.Loop.Tick(dt, r.context.Pointer()); err != nil {
			if msg := err.Error(); msg != lastErr {
				r.log.Warnf("%v", err)
				lastErr = msg
			}
		} else {
			lastErr = ""
		}
		r.present()
		r.context.EndFrame()
	}
	return nil
}

func (r *Renderer) onResize(p Pipeline, width, height int) {
	if err := r.Resize(width, height); err != nil {
		r.log.Errorf("resize to %dx%d failed: %v", width, height, err)
		return
	}
	if err := p.Loop.Resize(width, height); err != nil {
		r.log.Errorf("resize to %dx%d failed: %v", width, height, err)
	}
	p.Capture.NotifyResize(width, height)
}

// WaitForCapture pumps the capture service until it leaves the Capturing
// state or timeout elapses.
func WaitForCapture(svc *capture.Service, timeout time.Duration) capture.State {
	deadline := time.Now().Add(timeout)
	for {
		svc.Pump()
		state := svc.State()
		if state != capture.Capturing || time.Now().After(deadline) {
			return state
		}
		time.Sleep(time.Millisecond)
	}
}

// RunRecord renders a fixed number of frames offscreen with the pointer driven
// by script and encodes them with ffmpeg.
func (r *Renderer) RunRecord(p Pipeline, script *pointer.Script, o RecordOptions) error {
	if o.FPS <= 0 || o.Duration <= 0 {
		return fmt.Errorf("record needs positive fps and duration, got %d and %v", o.FPS, o.Duration)
	}
	o.Width, o.Height = r.Size()
	if err := p.Loop.Resize(o.Width, o.Height); err != nil {
		return err
	}
	if state := WaitForCapture(p.Capture, 5*time.Second); state != capture.Ready {
		r.log.Warnf("recording without content, capture is %s", state)
	}

	frameChan := make(chan *Frame, frameQueue)
	encoderDoneChan := make(chan error, 1)
	go runEncoder(o, r.log, frameChan, encoderDoneChan)

	totalFrames := int(o.Duration * float64(o.FPS))
	timeStep := 1.0 / float64(o.FPS)
	var pts int64
	send := func(pixels []byte) {
		frameChan <- &Frame{Pixels: pixels, PTS: pts}
		pts++
	}

	r.log.Infof("recording %d frames at %dx%d to %s", totalFrames, o.Width, o.Height, o.Output)
	start := time.Now()
	var renderErr error
	for i := 0; i < totalFrames; i++ {
		p.Capture.Pump()
		if err := p.Loop.Tick(timeStep, script.Next(float32(timeStep))); err != nil {
			r.log.Warnf("%v", err)
		}
		r.present()

		pixels, ok, err := r.offscreen.ReadAsync()
		if err != nil {
			renderErr = fmt.Errorf("failed to read frame %d: %w", i, err)
			break
		}
		if ok {
			send(pixels)
		}
	}
	if renderErr == nil {
		rest, err := r.offscreen.Flush()
		for _, pixels := range rest {
			send(pixels)
		}
		renderErr = err
	}
	close(frameChan)

	encodeErr := <-encoderDoneChan
	if renderErr != nil {
		return renderErr
	}
	if encodeErr != nil {
		return encodeErr
	}
	r.log.Infof("recorded %d frames in %s", pts, time.Since(start).Round(time.Millisecond))
	return nil
}
