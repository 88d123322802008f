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
	"context"
	"net"
)

// Probe reports whether something is already accepting TCP connections on
// host:port. A successful dial means occupied; the probe connection is closed
// at once. Any dial error means free. There are no retries and no timeout
// beyond ctx and the dialer's default.
func Probe(ctx context.Context, host string, port int) bool {
	if host == "" {
		host = "localhost"
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", joinHostPort(host, port))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
