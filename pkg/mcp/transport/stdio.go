// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("transport closed")

const maxLineSize = 4 * 1024 * 1024

type line struct {
	data []byte
	err  error
}

// Stdio speaks newline-delimited JSON over a reader and writer, normally
// os.Stdin and os.Stdout. Nothing else may write to the writer.
type Stdio struct {
	scanner *bufio.Scanner
	writer  io.Writer

	mu     sync.Mutex
	closed bool

	lines chan line
	start sync.Once
	done  chan struct{}
}

// NewStdio returns a transport reading r and writing w.
func NewStdio(r io.Reader, w io.Writer) *Stdio {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Stdio{
		scanner: sc,
		writer:  w,
		lines:   make(chan line),
		done:    make(chan struct{}),
	}
}

// readLoop outlives individual Receive calls so a cancelled Receive never
// loses a line.
func (t *Stdio) readLoop() {
	defer close(t.lines)
	for t.scanner.Scan() {
		data := bytes.Clone(t.scanner.Bytes())
		select {
		case t.lines <- line{data: data}:
		case <-t.done:
			return
		}
	}
	err := t.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case t.lines <- line{err: err}:
	case <-t.done:
	}
}

// Send writes message and a trailing newline.
func (t *Stdio) Send(_ context.Context, message []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	buf := make([]byte, 0, len(message)+1)
	buf = append(buf, message...)
	buf = append(buf, '\n')
	if _, err := t.writer.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive returns the next non-blank line with any trailing CR removed.
func (t *Stdio) Receive(ctx context.Context) ([]byte, error) {
	t.start.Do(func() { go t.readLoop() })
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.done:
			return nil, ErrClosed
		case l, ok := <-t.lines:
			if !ok {
				return nil, io.EOF
			}
			if l.err != nil {
				if errors.Is(l.err, io.EOF) {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("read message: %w", l.err)
			}
			data := bytes.TrimRight(l.data, "\r")
			if len(bytes.TrimSpace(data)) == 0 {
				continue
			}
			return data, nil
		}
	}
}

// Close stops delivery. The underlying reader and writer stay open.
func (t *Stdio) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
	return nil
}
