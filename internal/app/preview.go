package app

import (
	"context"
	"sync"
)

// Preview holds the latest debug frame as JPEG and wakes waiting readers
// when a new one is published. Slow readers skip frames.
type Preview struct {
	mu    sync.Mutex
	frame []byte
	seq   uint64
	ready chan struct{}
}

func NewPreview() *Preview {
	return &Preview{ready: make(chan struct{})}
}

// Publish replaces the latest frame. Publish takes ownership of jpeg.
func (p *Preview) Publish(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = jpeg
	p.seq++
	close(p.ready)
	p.ready = make(chan struct{})
}

// Latest returns the newest frame and its sequence number. seq is 0 when
// nothing was published yet.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.seq
}

// Next waits for a frame newer than after. The returned slice must not be
// modified.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after {
			frame, seq := p.frame, p.seq
			p.mu.Unlock()
			return frame, seq, nil
		}
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}
