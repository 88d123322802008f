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

// State is the lifecycle state of a Server.
type State int

const (
	StateUnstarted State = iota
	StateStarting
	StateRunning
	// StateDeclined means another listener owns the port. Terminal.
	StateDeclined
	// StateFailed means binding failed for a reason other than the port
	// being taken. Terminal.
	StateFailed
	// StateStopped is reached through Close. Terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDeclined:
		return "declined"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ClientState is the connection state of a Client.
type ClientState int

const (
	Disconnected ClientState = iota
	Connecting
	Connected
)

func (s ClientState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
