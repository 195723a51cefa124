package cmd

import (
	"io"
	"sync"
)

// terminal hands keyboard input to one prompt at a time. Reads of a prompt
// input end with io.EOF once the input is closed or its stop channel closes,
// so a waiting prompt can be released without a key press.
type terminal struct {
	chunks chan []byte

	mu      sync.Mutex
	pending []byte
}

func newTerminal(r io.Reader) *terminal {
	t := &terminal{chunks: make(chan []byte)}
	go t.pump(r)
	return t
}

func (t *terminal) pump(r io.Reader) {
	defer close(t.chunks)

	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.chunks <- chunk
		}
		if err != nil {
			return
		}
	}
}

// input returns a reader for a single prompt.
func (t *terminal) input(stop <-chan struct{}) io.ReadCloser {
	return &promptInput{t: t, stop: stop, closed: make(chan struct{})}
}

func (t *terminal) drain(b []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := copy(b, t.pending)
	t.pending = t.pending[n:]
	return n
}

func (t *terminal) keep(rest []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = append(t.pending, rest...)
}

type promptInput struct {
	t      *terminal
	stop   <-chan struct{}
	closed chan struct{}
	once   sync.Once
}

func (p *promptInput) Read(b []byte) (int, error) {
	select {
	case <-p.stop:
		return 0, io.EOF
	case <-p.closed:
		return 0, io.EOF
	default:
	}

	if n := p.t.drain(b); n > 0 {
		return n, nil
	}

	select {
	case <-p.stop:
		return 0, io.EOF
	case <-p.closed:
		return 0, io.EOF
	case chunk, ok := <-p.t.chunks:
		if !ok {
			return 0, io.EOF
		}
		n := copy(b, chunk)
		p.t.keep(chunk[n:])
		return n, nil
	}
}

func (p *promptInput) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
