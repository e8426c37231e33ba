package messages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/richinsley/gobulge/logging"
)

// ContentPath is the endpoint senders POST replacements to.
const ContentPath = "/content"

// HTTPChannel turns POST /content requests into Messages. The request's
// Origin header is carried through untouched; validation happens on the
// render thread, so every well-formed request is answered 202.
type HTTPChannel struct {
	log      logging.Logger
	server   *http.Server
	listener net.Listener
	msgs     chan Message

	mu     sync.Mutex
	closed bool
}

// NewHTTPChannel builds an unstarted channel. Use Listen to serve on a
// socket or mount it as an http.Handler.
func NewHTTPChannel(log logging.Logger) *HTTPChannel {
	c := &HTTPChannel{
		log:  logging.OrNop(log),
		msgs: make(chan Message, 16),
	}
	mux := http.NewServeMux()
	mux.Handle(ContentPath, c)
	c.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return c
}

// Listen starts serving on addr in the background.
func (c *HTTPChannel) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	c.listener = l
	c.log.Infof("accepting content replacements on http://%s%s", l.Addr(), ContentPath)
	go func() {
		if err := c.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Errorf("content server stopped: %v", err)
		}
	}()
	return nil
}

func (c *HTTPChannel) Addr() string {
	if c.listener == nil {
		return ""
	}
	return c.listener.Addr().String()
}

func (c *HTTPChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadSize+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > MaxPayloadSize {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	m := NewMessage(r.Header.Get("Origin"), body)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	select {
	case c.msgs <- m:
		c.log.Debugf("queued message %s from %q (%d bytes)", m.ID, m.Origin, len(body))
		w.WriteHeader(http.StatusAccepted)
	default:
		c.log.Warnf("message queue full, dropping message from %q", m.Origin)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

func (c *HTTPChannel) Messages() <-chan Message {
	return c.msgs
}

// Close stops the server and closes the Messages channel.
func (c *HTTPChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.msgs)
	c.mu.Unlock()

	if c.listener == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}
