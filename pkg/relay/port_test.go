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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePort(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", DefaultPort},
		{"valid", "8080", 8080},
		{"valid with spaces", " 4500 ", 4500},
		{"upper bound", "65535", 65535},
		{"lower bound", "1", 1},
		{"zero", "0", DefaultPort},
		{"negative", "-1", DefaultPort},
		{"too large", "65536", DefaultPort},
		{"not a number", "abc", DefaultPort},
		{"float", "80.5", DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string {
				if key == PortEnv {
					return tt.value
				}
				return ""
			}
			assert.Equal(t, tt.want, ResolvePort(getenv))
		})
	}
}

func TestResolvePort_ProcessEnv(t *testing.T) {
	t.Setenv(PortEnv, "9123")
	assert.Equal(t, 9123, ResolvePort(nil))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:3001", URL("", DefaultPort))
	assert.Equal(t, "ws://127.0.0.1:4500", URL("127.0.0.1", 4500))
	assert.Equal(t, "ws://[::1]:4500", URL("::1", 4500))
}
