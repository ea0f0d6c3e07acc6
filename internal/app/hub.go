package app

import (
	"encoding/json"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Hub keeps the latest rendered frame as JPEG together with its result and
// wakes subscribers when a new one arrives. It feeds the web preview.
type Hub struct {
	mu     sync.RWMutex
	jpeg   []byte
	result []byte
	seq    uint64
	subs   map[chan struct{}]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

// Consume encodes frame and publishes it with res.
func (h *Hub) Consume(frame *gocv.Mat, res *Result) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases the native buffer, which is freed by Close.
	jpeg := append([]byte(nil), buf.GetBytes()...)
	return h.Publish(jpeg, res)
}

// Publish stores an encoded frame and its result and notifies subscribers.
func (h *Hub) Publish(jpeg []byte, res *Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	h.jpeg = jpeg
	h.result = data
	h.seq++

	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Latest returns the newest frame, its JSON result and a sequence number
// that grows with every publish. seq is 0 before the first frame.
func (h *Hub) Latest() (jpeg, result []byte, seq uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.result, h.seq
}

// Subscribe returns a channel that receives a signal after each publish.
// Signals coalesce when the reader is slow. The channel is closed when the
// hub closes or cancel is called.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close wakes and detaches every subscriber. Later publishes are dropped.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}
