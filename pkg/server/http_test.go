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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/notify"
)

type fakeRelay struct {
	running bool
	conns   int
}

func (f fakeRelay) IsRunning() bool      { return f.running }
func (f fakeRelay) ConnectionCount() int { return f.conns }

func newTestService(t *testing.T) (*board.Service, *notify.Recorder) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := board.Open(context.Background(), board.Options{
		DSN:    filepath.Join(t.TempDir(), "devflow.db"),
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := &notify.Recorder{}
	return board.NewService(store, board.ServiceConfig{Notifier: rec, Logger: logger}), rec
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Service == nil {
		cfg.Service, _ = newTestService(t)
	}
	cfg.Logger = zaptest.NewLogger(t)
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// do sends body as JSON and decodes the response into out when non-nil.
func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name  string
		relay RelayStatus
		want  string
	}{
		{"no relay", nil, `{"status":"healthy","relay":{"running":false,"connections":0}}`},
		{"running relay", fakeRelay{running: true, conns: 3}, `{"status":"healthy","relay":{"running":true,"connections":3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Config{Relay: tt.relay})
			resp, err := http.Get(ts.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		ts := newTestServer(t, Config{CORS: DefaultCORSConfig()})
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/projects", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PATCH, DELETE, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		cors := DefaultCORSConfig()
		cors.AllowedOrigins = []string{"http://board.local"}
		ts := newTestServer(t, Config{CORS: cors})

		for origin, want := range map[string]string{
			"http://board.local": "http://board.local",
			"http://evil.local":  "",
		} {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", origin)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, want, resp.Header.Get("Access-Control-Allow-Origin"), origin)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, Config{})
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestStartStop(t *testing.T) {
	svc, _ := newTestService(t)
	h := New(Config{Addr: "127.0.0.1:0", Service: svc, Logger: zaptest.NewLogger(t)})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Start(context.Background()) }()
	require.Eventually(t, func() bool { return h.Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + h.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, h.Stop(context.Background()))
	assert.NoError(t, <-errCh)
}
