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

// Package notify defines the change notifications devflow publishes after
// a mutation and the adapters that deliver them through the relay.
//
// A notification is a hint for what a viewer should refetch, not a copy of
// state. Receivers route on Type and treat unknown types as "refresh
// everything".
package notify

import (
	"encoding/json"
	"fmt"
)

// Type names a notification.
type Type string

const (
	ProjectCreated      Type = "project_created"
	ProjectUpdated      Type = "project_updated"
	ProjectDeleted      Type = "project_deleted"
	FeatureCreated      Type = "feature_created"
	FeatureUpdated      Type = "feature_updated"
	FeatureDeleted      Type = "feature_deleted"
	FeaturesCreatedBulk Type = "features_created_bulk"
	FileUploaded        Type = "file_uploaded"
	FileUpdated         Type = "file_updated"
	FileDeleted         Type = "file_deleted"
	TaskCreated         Type = "task_created"
	TaskUpdated         Type = "task_updated"
	TaskDeleted         Type = "task_deleted"
	TasksCreatedBulk    Type = "tasks_created_bulk"
	AgentCheckedIn      Type = "agent_checked_in"
	AgentCheckedOut     Type = "agent_checked_out"
	ActivityLogged      Type = "activity_logged"
)

// Message is one notification. It marshals flat: {"type": ..., fields...}.
type Message struct {
	Type   Type
	Fields map[string]any
}

// New builds a message from alternating key/value pairs. A trailing key
// without a value is ignored.
func New(t Type, kv ...any) Message {
	m := Message{Type: t, Fields: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		m.Fields[key] = kv[i+1]
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	out["type"] = string(m.Type)
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Fields keep their decoded
// JSON form.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, _ := raw["type"].(string)
	if t == "" {
		return fmt.Errorf("notification has no type")
	}
	delete(raw, "type")
	m.Type = Type(t)
	m.Fields = raw
	return nil
}

// Parse decodes a relayed frame. Frames that are not notifications return
// an error; the relay itself never needs this.
func Parse(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("parse notification: %w", err)
	}
	return m, nil
}

// Created reports the creation of entity under its singular key.
func Created(t Type, key string, entity any) Message {
	return New(t, key, entity)
}

// Updated reports changes applied to the entity whose id is stored under
// idKey.
func Updated(t Type, idKey, id string, updates any) Message {
	if updates == nil {
		return New(t, idKey, id)
	}
	return New(t, idKey, id, "updates", updates)
}

// Deleted reports removal of the entity whose id is stored under idKey.
func Deleted(t Type, idKey, id string) Message {
	return New(t, idKey, id)
}

// Agent reports an agent lifecycle event on a task.
func Agent(t Type, taskID, agentName string) Message {
	return New(t, "taskId", taskID, "agentName", agentName)
}
