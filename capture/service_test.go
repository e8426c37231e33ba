package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake node ---

type rasterResult struct {
	img *image.RGBA
	err error
}

type rasterCall struct {
	width, height int
	reply         chan rasterResult
}

// gatedNode hands every Rasterize call to the test, which decides when and
// how it completes.
type gatedNode struct {
	calls chan *rasterCall
}

func newGatedNode() *gatedNode {
	return &gatedNode{calls: make(chan *rasterCall, 8)}
}

func (n *gatedNode) Rasterize(ctx context.Context, width, height int) (*image.RGBA, error) {
	c := &rasterCall{width: width, height: height, reply: make(chan rasterResult, 1)}
	n.calls <- c
	select {
	case r := <-c.reply:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *gatedNode) next(t *testing.T) *rasterCall {
	t.Helper()
	select {
	case c := <-n.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Rasterize")
		return nil
	}
}

func (c *rasterCall) succeed() {
	c.reply <- rasterResult{img: image.NewRGBA(image.Rect(0, 0, c.width, c.height))}
}

func (c *rasterCall) fail(err error) {
	c.reply <- rasterResult{err: err}
}

func newTestService(mock *clock.Mock) *Service {
	return NewService(Config{Width: 64, Height: 32, Clock: mock})
}

// pumpUntil drains the mailbox until cond holds.
func pumpUntil(t *testing.T, s *Service, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.Pump()
		return cond()
	}, time.Second, time.Millisecond)
}

// pumpFor drains the mailbox for a short while, for asserting that nothing changes.
func pumpFor(s *Service, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		s.Pump()
		time.Sleep(time.Millisecond)
	}
}

// --- tests ---

func TestRequestWithoutNode(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()

	_, err := s.RequestCapture()
	assert.ErrorIs(t, err, ErrNoContentNode)
	_, err = s.AttachContentNode(nil)
	assert.ErrorIs(t, err, ErrNoContentNode)
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Current())
}

func TestAttachInstallsFirstCapture(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	v, err := s.AttachContentNode(node)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
	assert.Equal(t, Capturing, s.State())

	call := node.next(t)
	assert.Equal(t, 64, call.width)
	assert.Equal(t, 32, call.height)
	assert.Nil(t, s.Current(), "nothing is installed before Pump")
	call.succeed()

	pumpUntil(t, s, func() bool { return s.Current() != nil })
	tex := s.Current()
	assert.Equal(t, uint64(1), tex.Version)
	assert.Equal(t, 64, tex.Width)
	assert.Equal(t, 32, tex.Height)
	assert.Equal(t, Ready, s.State())
}

func TestStaleResultIsDiscarded(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	v1, err := s.AttachContentNode(node)
	require.NoError(t, err)
	first := node.next(t)

	v2, err := s.RequestCapture()
	require.NoError(t, err)
	require.Equal(t, v1+1, v2)
	second := node.next(t)

	second.succeed()
	pumpUntil(t, s, func() bool { return s.Current() != nil })
	require.Equal(t, v2, s.Current().Version)

	first.succeed()
	pumpUntil(t, s, func() bool { return s.Stats().Stale == 1 })
	assert.Equal(t, v2, s.Current().Version, "older completion must never replace a newer texture")
	assert.Equal(t, Ready, s.State())
}

func TestStaleResultBeforeNewerCompletes(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	first := node.next(t)
	_, err = s.RequestCapture()
	require.NoError(t, err)
	second := node.next(t)

	first.succeed()
	pumpUntil(t, s, func() bool { return s.Stats().Stale == 1 })
	assert.Nil(t, s.Current())
	assert.Equal(t, Capturing, s.State())

	second.succeed()
	pumpUntil(t, s, func() bool { return s.Current() != nil })
	assert.Equal(t, uint64(2), s.Current().Version)
}

func TestFailureKeepsPreviousTexture(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	node.next(t).succeed()
	pumpUntil(t, s, func() bool { return s.Current() != nil })
	installed := s.Current()

	_, err = s.RequestCapture()
	require.NoError(t, err)
	boom := errors.New("cross-origin image")
	node.next(t).fail(boom)
	pumpUntil(t, s, func() bool { return s.State() == Failed })

	assert.Same(t, installed, s.Current())
	var capErr *CaptureError
	require.ErrorAs(t, s.LastError(), &capErr)
	assert.Equal(t, uint64(2), capErr.Version)
	assert.ErrorIs(t, s.LastError(), boom)
	assert.Equal(t, 1, s.Stats().Failed)
}

func TestEmptyRasterIsAFailure(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	node.next(t).reply <- rasterResult{}
	pumpUntil(t, s, func() bool { return s.State() == Failed })
	assert.ErrorIs(t, s.LastError(), ErrEmptyRaster)
	assert.Nil(t, s.Current())
}

func TestDetachDuringCaptureKeepsTexture(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()
	node := newGatedNode()

	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	node.next(t).succeed()
	pumpUntil(t, s, func() bool { return s.Current() != nil })
	installed := s.Current()

	_, err = s.RequestCapture()
	require.NoError(t, err)
	late := node.next(t)

	s.DetachContentNode()
	late.succeed()
	pumpUntil(t, s, func() bool { return s.Stats().Stale == 1 })

	assert.Same(t, installed, s.Current())
	assert.Equal(t, Ready, s.State())
	_, err = s.RequestCapture()
	assert.ErrorIs(t, err, ErrNoContentNode)
}

func TestResizeBurstIssuesOneCapture(t *testing.T) {
	mock := clock.NewMock()
	s := newTestService(mock)
	defer s.Close()
	node := newGatedNode()

	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	node.next(t).succeed()
	pumpUntil(t, s, func() bool { return s.Current() != nil })
	require.Equal(t, 1, s.Stats().Requested)

	for i := 1; i <= 8; i++ {
		s.NotifyResize(100+i, 50+i)
		mock.Add(10 * time.Millisecond)
		s.Pump()
	}
	assert.Equal(t, 1, s.Stats().Requested, "no capture while resizing")

	mock.Add(DefaultDebounceWindow)
	pumpUntil(t, s, func() bool { return s.Stats().Requested == 2 })

	call := node.next(t)
	assert.Equal(t, 108, call.width)
	assert.Equal(t, 58, call.height)
	call.succeed()
	pumpUntil(t, s, func() bool { return s.Current().Version == 2 })

	mock.Add(time.Second)
	pumpFor(s, 20*time.Millisecond)
	assert.Equal(t, 2, s.Stats().Requested)
}

func TestResizeIgnoresEmptyViewport(t *testing.T) {
	mock := clock.NewMock()
	s := newTestService(mock)
	defer s.Close()

	s.NotifyResize(0, 100)
	s.NotifyResize(100, -1)
	w, h := s.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
}

func TestResizeWithoutNodeIsHarmless(t *testing.T) {
	mock := clock.NewMock()
	s := newTestService(mock)
	defer s.Close()

	s.NotifyResize(200, 100)
	mock.Add(DefaultDebounceWindow)
	pumpFor(s, 20*time.Millisecond)
	assert.Equal(t, 0, s.Stats().Requested)
	assert.Equal(t, Idle, s.State())
}

func TestPostRunsOnPump(t *testing.T) {
	s := newTestService(clock.NewMock())
	defer s.Close()

	ran := false
	require.True(t, s.Post(func() { ran = true }))
	assert.False(t, ran)
	assert.Equal(t, 1, s.Pump())
	assert.True(t, ran)
}

func TestCloseCancelsInflight(t *testing.T) {
	s := newTestService(clock.NewMock())
	node := newGatedNode()
	_, err := s.AttachContentNode(node)
	require.NoError(t, err)
	node.next(t)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
	_, err = s.RequestCapture()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.Post(func() {}))
}
