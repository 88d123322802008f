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

package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/pubsub"
	"github.com/teradata-labs/devflow/pkg/relay"
)

// EventsStream is the SSE stream id every client is attached to.
const EventsStream = "updates"

// FrameSource yields relayed frames. *relay.Server and *relay.Client both
// qualify.
type FrameSource interface {
	Subscribe(ctx context.Context) <-chan pubsub.Event[relay.Frame]
}

// Events mirrors relayed notifications onto a server-sent event stream for
// browsers that cannot hold the socket open. Clients that miss frames fall
// back to polling the API, so nothing is replayed.
type Events struct {
	source FrameSource
	sse    *sse.Server
	logger *zap.Logger

	closeOnce sync.Once
}

// NewEvents creates the stream. Run must be called to start mirroring.
func NewEvents(source FrameSource, logger *zap.Logger) *Events {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := sse.New()
	srv.AutoReplay = false
	srv.AutoStream = false
	srv.CreateStream(EventsStream)
	return &Events{
		source: source,
		sse:    srv,
		logger: logger.Named("events"),
	}
}

// Run publishes every relayed frame until ctx is done or the source stops.
func (e *Events) Run(ctx context.Context) {
	frames := e.source.Subscribe(ctx)
	e.logger.Debug("event stream started")
	for ev := range frames {
		if ev.Type != pubsub.UpdatedEvent || ev.Payload.Type == websocket.BinaryMessage {
			continue
		}
		e.sse.Publish(EventsStream, &sse.Event{Data: ev.Payload.Data})
	}
	e.logger.Debug("event stream stopped")
}

// ServeHTTP attaches the client to the update stream regardless of the
// stream query parameter.
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.Clone(r.Context())
	q := r.URL.Query()
	q.Set("stream", EventsStream)
	r.URL.RawQuery = q.Encode()
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	e.sse.ServeHTTP(w, r)
}

// Close disconnects every client.
func (e *Events) Close() {
	e.closeOnce.Do(e.sse.Close)
}
