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

package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantStr string
		wantNum int64
		isNull  bool
		wantErr bool
	}{
		{name: "string", input: `"abc-1"`, wantStr: "abc-1"},
		{name: "number", input: `42`, wantNum: 42},
		{name: "null", input: `null`, isNull: true},
		{name: "bool", input: `true`, wantErr: true},
		{name: "float", input: `1.5`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id RequestID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			switch {
			case tt.isNull:
				assert.Nil(t, id.Str)
				assert.Nil(t, id.Num)
			case tt.wantStr != "":
				require.NotNil(t, id.Str)
				assert.Equal(t, tt.wantStr, *id.Str)
			default:
				require.NotNil(t, id.Num)
				assert.Equal(t, tt.wantNum, *id.Num)
			}

			out, err := json.Marshal(&id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}
}

func TestRequestID_String(t *testing.T) {
	var nilID *RequestID
	assert.Equal(t, "null", nilID.String())
	assert.Equal(t, "7", NewNumericRequestID(7).String())
	assert.Equal(t, "x", NewStringRequestID("x").String())
}

func TestRequest_Notification(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), &req))
	assert.True(t, req.IsNotification())

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":0,"method":"ping"}`), &req))
	assert.False(t, req.IsNotification())
}

func TestResponses(t *testing.T) {
	resp, err := NewResponse(NewNumericRequestID(1), map[string]int{"n": 1})
	require.NoError(t, err)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{"n":1}}`, string(data))

	data, err = json.Marshal(NewErrorResponse(nil, NewError(ParseError, "invalid JSON", nil)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"invalid JSON"}}`, string(data))

	_, err = NewResponse(NewNumericRequestID(1), make(chan int))
	assert.Error(t, err)
}

func TestError(t *testing.T) {
	e := NewError(InvalidParams, "bad", map[string]string{"field": "x"})
	assert.JSONEq(t, `{"field":"x"}`, string(e.Data))
	assert.Contains(t, e.Error(), "-32602")
	assert.Contains(t, e.Error(), `"field"`)

	var target *Error
	assert.True(t, errors.As(error(e), &target))
	assert.Equal(t, "JSON-RPC error -32601: nope", NewError(MethodNotFound, "nope", nil).Error())
}

func TestNegotiateVersion(t *testing.T) {
	assert.Equal(t, "2024-11-05", NegotiateVersion("2024-11-05"))
	assert.Equal(t, LatestProtocolVersion, NegotiateVersion("1999-01-01"))
	assert.Equal(t, LatestProtocolVersion, NegotiateVersion(""))
}

func TestResults(t *testing.T) {
	ok := TextResult("done")
	assert.False(t, ok.IsError)
	assert.Equal(t, []Content{{Type: "text", Text: "done"}}, ok.Content)

	failed := ErrorResult(errors.New("Task x not found"))
	assert.True(t, failed.IsError)
	assert.Equal(t, "Error: Task x not found", failed.Content[0].Text)
}
