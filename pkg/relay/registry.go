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
	"errors"

	"github.com/teradata-labs/devflow/internal/csync"
)

var (
	// ErrPeerClosed is returned when sending to a peer that has closed.
	ErrPeerClosed = errors.New("relay: peer closed")
	// ErrPeerBacklogged is returned when a peer's outbound queue is full.
	ErrPeerBacklogged = errors.New("relay: peer send queue full")
)

// Peer is one endpoint participating in fan-out.
type Peer interface {
	ID() uint64
	// Open reports whether the peer can still accept frames.
	Open() bool
	// Send queues a frame without blocking.
	Send(f Frame) error
	Close() error
}

// Registry is the set of connected peers owned by one Server. Only the
// server's hub goroutine mutates it; other goroutines may query it.
type Registry struct {
	peers *csync.Map[uint64, Peer]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: csync.NewMap[uint64, Peer]()}
}

// Add registers a peer.
func (r *Registry) Add(p Peer) {
	r.peers.Set(p.ID(), p)
}

// Remove unregisters a peer and reports whether it was present. Removing an
// absent peer is a no-op.
func (r *Registry) Remove(p Peer) bool {
	return r.peers.Delete(p.ID())
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	return r.peers.Len()
}

// Others returns every open peer except the one with id except. Pass 0 to
// include all peers.
func (r *Registry) Others(except uint64) []Peer {
	all := r.peers.Snapshot()
	out := all[:0]
	for _, p := range all {
		if p.ID() == except || !p.Open() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Drain removes and returns every peer.
func (r *Registry) Drain() []Peer {
	return r.peers.Drain()
}
