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

package notify

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/relay"
)

// Notifier delivers notifications. Implementations are best effort and
// never fail the mutation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, m Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, m Message)

func (f NotifierFunc) Notify(ctx context.Context, m Message) { f(ctx, m) }

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// ClientNotifier sends through an agent-side relay client.
type ClientNotifier struct {
	Client *relay.Client
}

func (n ClientNotifier) Notify(_ context.Context, m Message) {
	if n.Client == nil {
		return
	}
	n.Client.BroadcastUpdate(m)
}

// ServerNotifier injects into a relay server held by this process.
type ServerNotifier struct {
	Server *relay.Server
	Logger *zap.Logger
}

func (n ServerNotifier) Notify(_ context.Context, m Message) {
	if n.Server == nil {
		return
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := json.Marshal(m)
	if err != nil {
		logger.Warn("notification not serializable", zap.String("type", string(m.Type)), zap.Error(err))
		return
	}
	if err := n.Server.Inject(data); err != nil {
		logger.Debug("notification dropped", zap.String("type", string(m.Type)), zap.Error(err))
	}
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(_ context.Context, m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Types returns the recorded notification types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Type
	}
	return out
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
