// Package capture turns a content Node into versioned textures off the
// render thread and installs only the newest result.
package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/richinsley/gobulge/logging"
)

type Config struct {
	// Initial raster size; NotifyResize updates it.
	Width, Height  int
	DebounceWindow time.Duration
	Clock          clock.Clock
	Logger         logging.Logger
	MailboxSize    int
}

type request struct {
	id      string
	version uint64
	width   int
	height  int
}

// Service owns the current Texture. Every method except Post and Close must
// be called from the render thread; rasterization completions are queued and
// applied by Pump on that same thread, so no state here is locked.
type Service struct {
	log       logging.Logger
	clock     clock.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	mailbox   *mailbox
	debouncer *Debouncer
	inflight  sync.WaitGroup

	node    Node
	width   int
	height  int
	latest  uint64
	current *Texture
	state   State
	lastErr error
	stats   Stats
	closed  bool
}

func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		log:     logging.OrNop(cfg.Logger),
		clock:   cfg.Clock,
		ctx:     ctx,
		cancel:  cancel,
		mailbox: newMailbox(ctx, cfg.MailboxSize),
		width:   cfg.Width,
		height:  cfg.Height,
	}
	s.debouncer = NewDebouncer(cfg.Clock, cfg.DebounceWindow, func() {
		s.mailbox.post(s.resizeSettled)
	})
	return s
}

// AttachContentNode registers the content to capture and requests the first
// capture of it.
func (s *Service) AttachContentNode(node Node) (uint64, error) {
	if node == nil {
		return 0, ErrNoContentNode
	}
	s.node = node
	return s.RequestCapture()
}

// DetachContentNode drops the content reference. Captures still in flight
// are superseded and their results will be discarded.
func (s *Service) DetachContentNode() {
	s.node = nil
	s.latest++
	if s.current != nil {
		s.state = Ready
	} else {
		s.state = Idle
	}
}

// RequestCapture starts rasterizing the attached node at the current size and
// returns the version the result will carry.
func (s *Service) RequestCapture() (uint64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.node == nil {
		return 0, ErrNoContentNode
	}
	s.latest++
	req := request{
		id:      uuid.NewString(),
		version: s.latest,
		width:   s.width,
		height:  s.height,
	}
	s.state = Capturing
	s.stats.Requested++
	s.log.Debugf("capture %s v%d requested at %dx%d", req.id, req.version, req.width, req.height)

	node := s.node
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		started := s.clock.Now()
		img, err := node.Rasterize(s.ctx, req.width, req.height)
		took := s.clock.Since(started)
		s.mailbox.post(func() { s.complete(req, img, err, took) })
	}()
	return req.version, nil
}

func (s *Service) complete(req request, img *image.RGBA, err error, took time.Duration) {
	if req.version != s.latest {
		s.stats.Stale++
		s.log.Debugf("capture %s v%d discarded, v%d is newer", req.id, req.version, s.latest)
		return
	}
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = ErrEmptyRaster
	}
	if err != nil {
		s.stats.Failed++
		s.state = Failed
		s.lastErr = &CaptureError{Version: req.version, RequestID: req.id, Err: err}
		s.log.Warnf("%v; keeping texture %s", s.lastErr, s.describeCurrent())
		return
	}

	b := img.Bounds()
	s.current = &Texture{
		Image:   img,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Version: req.version,
	}
	s.state = Ready
	s.lastErr = nil
	s.stats.Installed++
	s.log.Debugf("capture %s v%d installed (%dx%d) in %s", req.id, req.version, b.Dx(), b.Dy(), took)
}

func (s *Service) describeCurrent() string {
	if s.current == nil {
		return "none"
	}
	return fmt.Sprintf("v%d", s.current.Version)
}

// NotifyResize records the new viewport size and schedules a debounced
// recapture. Zero sizes (minimized windows) are ignored.
func (s *Service) NotifyResize(width, height int) {
	if s.closed || width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
	s.debouncer.Trigger()
}

func (s *Service) resizeSettled() {
	if _, err := s.RequestCapture(); err != nil {
		s.log.Debugf("resize settled at %dx%d, nothing captured: %v", s.width, s.height, err)
	}
}

// Pump applies queued completions and settled resizes. Call it once per frame
// before the render loop tick.
func (s *Service) Pump() int {
	return s.mailbox.drain()
}

// Post queues fn to run on the render thread at the next Pump. It is safe to
// call from any goroutine and returns false after Close.
func (s *Service) Post(fn func()) bool {
	return s.mailbox.post(fn)
}

// Current returns the installed texture, or nil before the first success.
func (s *Service) Current() *Texture {
	return s.current
}

func (s *Service) State() State {
	return s.state
}

// LatestVersion is the version of the most recent request.
func (s *Service) LatestVersion() uint64 {
	return s.latest
}

// LastError is the most recent CaptureError, cleared by the next success.
func (s *Service) LastError() error {
	return s.lastErr
}

func (s *Service) Stats() Stats {
	return s.stats
}

func (s *Service) Size() (int, int) {
	return s.width, s.height
}

// Close stops the debouncer, cancels running rasterizations and waits for
// their goroutines to exit.
func (s *Service) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.debouncer.Stop()
	s.cancel()
	s.inflight.Wait()
}
