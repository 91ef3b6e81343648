package dispatch

import (
	"bytes"
	"io"
	"sync"
)

const redactedPlaceholder = "***"

// Redactor is an io.Writer that masks a secret before forwarding to the
// underlying writer. Output is buffered per line so a secret split across
// Write calls on the same line is still caught.
type Redactor struct {
	mu     sync.Mutex
	w      io.Writer
	secret []byte
	buf    bytes.Buffer
}

// NewRedactor wraps w so that secret never reaches it. An empty secret
// returns a pass-through redactor.
func NewRedactor(w io.Writer, secret string) *Redactor {
	return &Redactor{w: w, secret: []byte(secret)}
}

// Write buffers p and flushes complete lines with the secret masked.
func (r *Redactor) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Write(p)
	for {
		idx := bytes.IndexByte(r.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := make([]byte, idx+1)
		copy(line, r.buf.Bytes()[:idx+1])
		r.buf.Next(idx + 1)
		if _, err := r.w.Write(r.mask(line)); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Flush writes any buffered partial line, masked. Call when the producing
// process has exited.
func (r *Redactor) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf.Len() == 0 {
		return nil
	}
	line := r.mask(append([]byte(nil), r.buf.Bytes()...))
	r.buf.Reset()
	_, err := r.w.Write(line)
	return err
}

func (r *Redactor) mask(line []byte) []byte {
	if len(r.secret) == 0 {
		return line
	}
	return bytes.ReplaceAll(line, r.secret, []byte(redactedPlaceholder))
}
