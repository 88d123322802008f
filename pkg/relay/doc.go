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

// Package relay propagates change notifications between devflow processes
// and browsers over websockets.
//
// A Server accepts any number of peers and relays every frame it receives to
// all other open peers, never back to the sender. Frames are opaque: the
// relay does not parse or validate them. At most one Server binds a port on
// a host; Start probes the port first and declines instead of failing when
// another process already owns it.
//
// A Client is the agent-side producer. It connects in the background,
// reconnects with capped exponential backoff, and its send operations never
// fail the caller: when the relay is down, notifications are dropped and the
// browser falls back to polling.
package relay
