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
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the relay port used when no valid override is set.
	DefaultPort = 3001
	// PortEnv names the environment variable that overrides DefaultPort.
	PortEnv = "DEVFLOW_WS_PORT"
)

// ParsePort parses a port override. Only integers strictly between 0 and
// 65536 are accepted.
func ParsePort(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n >= 65536 {
		return 0, false
	}
	return n, true
}

// ResolvePort returns the port named by PortEnv in getenv, or DefaultPort
// when the variable is unset or invalid. A nil getenv reads the process
// environment.
func ResolvePort(getenv func(string) string) int {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(PortEnv); v != "" {
		if port, ok := ParsePort(v); ok {
			return port
		}
	}
	return DefaultPort
}

// URL returns the websocket endpoint for host and port.
func URL(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return "ws://" + joinHostPort(host, port)
}

func joinHostPort(host string, port int) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(port)
}
