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

package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendQueueSize  = 256
	maxMessageSize = 1 << 20
)

// wsPeer adapts a websocket connection to Peer. A read pump feeds inbound
// frames to the server; a write pump drains the send queue in order.
type wsPeer struct {
	id     uint64
	conn   *websocket.Conn
	send   chan Frame
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	logger *zap.Logger
}

func newWSPeer(id uint64, conn *websocket.Conn, logger *zap.Logger) *wsPeer {
	return &wsPeer{
		id:     id,
		conn:   conn,
		send:   make(chan Frame, sendQueueSize),
		done:   make(chan struct{}),
		logger: logger.With(zap.Uint64("peer", id), zap.String("remote", conn.RemoteAddr().String())),
	}
}

func (p *wsPeer) ID() uint64 { return p.id }

func (p *wsPeer) Open() bool { return !p.closed.Load() }

func (p *wsPeer) Send(f Frame) error {
	if p.closed.Load() {
		return ErrPeerClosed
	}
	select {
	case <-p.done:
		return ErrPeerClosed
	case p.send <- f:
		return nil
	default:
		return ErrPeerBacklogged
	}
}

// Close stops both pumps. Safe to call more than once.
func (p *wsPeer) Close() error {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.done)
	})
	return nil
}

// readPump forwards frames to onFrame until the connection fails, then
// calls onClose exactly once.
func (p *wsPeer) readPump(onFrame func(*wsPeer, int, []byte), onClose func(*wsPeer)) {
	defer func() {
		_ = p.Close()
		onClose(p)
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				p.logger.Warn("peer read error", zap.Error(err))
			}
			return
		}
		onFrame(p, messageType, data)
	}
}

func (p *wsPeer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case <-p.done:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case f := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(f.messageType(), f.Data); err != nil {
				p.logger.Debug("peer write failed", zap.Error(err))
				_ = p.Close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = p.Close()
				return
			}
		}
	}
}
