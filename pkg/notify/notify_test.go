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
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/devflow/pkg/relay"
)

func TestMessage_MarshalFlat(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "created",
			msg:  Created(TaskCreated, "task", map[string]string{"id": "t1", "title": "x"}),
			want: `{"type":"task_created","task":{"id":"t1","title":"x"}}`,
		},
		{
			name: "updated with changes",
			msg:  Updated(TaskUpdated, "taskId", "t1", map[string]string{"status": "done"}),
			want: `{"type":"task_updated","taskId":"t1","updates":{"status":"done"}}`,
		},
		{
			name: "updated without changes",
			msg:  Updated(FileUpdated, "fileId", "f1", nil),
			want: `{"type":"file_updated","fileId":"f1"}`,
		},
		{
			name: "deleted",
			msg:  Deleted(ProjectDeleted, "projectId", "p1"),
			want: `{"type":"project_deleted","projectId":"p1"}`,
		},
		{
			name: "agent",
			msg:  Agent(AgentCheckedIn, "t1", "claude"),
			want: `{"type":"agent_checked_in","taskId":"t1","agentName":"claude"}`,
		},
		{
			name: "type field cannot be overridden",
			msg:  New(TaskDeleted, "type", "bogus", "taskId", "t1"),
			want: `{"type":"task_deleted","taskId":"t1"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestNew_OddArguments(t *testing.T) {
	m := New(TaskCreated, "task", 1, "dangling")
	assert.Equal(t, map[string]any{"task": 1}, m.Fields)
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`{"type":"task_updated","taskId":"t1"}`))
	require.NoError(t, err)
	assert.Equal(t, TaskUpdated, m.Type)
	assert.Equal(t, "t1", m.Fields["taskId"])

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
	_, err = Parse([]byte(`{"taskId":"t1"}`))
	assert.Error(t, err)
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	var calls int
	n := Multi{&a, nil, &b, NotifierFunc(func(context.Context, Message) { calls++ }), Nop{}}

	n.Notify(context.Background(), Deleted(TaskDeleted, "taskId", "t1"))
	n.Notify(context.Background(), Deleted(TaskDeleted, "taskId", "t2"))

	assert.Equal(t, []Type{TaskDeleted, TaskDeleted}, a.Types())
	assert.Len(t, b.Messages(), 2)
	assert.Equal(t, 2, calls)

	a.Reset()
	assert.Empty(t, a.Messages())
}

func TestNilAdaptersAreSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		ClientNotifier{}.Notify(context.Background(), New(TaskCreated))
		ServerNotifier{}.Notify(context.Background(), New(TaskCreated))
	})
}

func TestServerNotifier_NotRunning(t *testing.T) {
	s := relay.NewServer(relay.ServerConfig{})
	assert.NotPanics(t, func() {
		ServerNotifier{Server: s, Logger: zaptest.NewLogger(t)}.Notify(context.Background(), New(TaskCreated))
	})
}

func TestServerNotifier_ReachesPeers(t *testing.T) {
	s := relay.NewServer(relay.ServerConfig{Host: "127.0.0.1", Logger: zaptest.NewLogger(t)})
	_, err := s.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})

	conn, resp, err := websocket.DefaultDialer.Dial(relay.URL("127.0.0.1", s.Port()), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	require.Eventually(t, func() bool { return s.ConnectionCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	ServerNotifier{Server: s}.Notify(context.Background(), Agent(AgentCheckedOut, "t1", "claude"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"agent_checked_out","taskId":"t1","agentName":"claude"}`, string(data))
}
