// Package a2a implements the Agent-to-Agent JSON-RPC dispatcher: message
// parsing, skill routing, in-memory task state, push-notification config
// CRUD, and the discovery endpoints.
//
// The A2A wire shapes use camelCase field names per the protocol; the AdCP
// payloads they carry keep their own snake_case convention.
package a2a

import (
	"bytes"
	"encoding/json"

	"github.com/adcontexthq/salesagent/internal/push"
)

// Task states.
const (
	StateSubmitted     = "submitted"
	StateWorking       = "working"
	StateInputRequired = "input-required"
	StateCompleted     = "completed"
	StateFailed        = "failed"
	StateCanceled      = "canceled"
	StateRejected      = "rejected"
	StateAuthRequired  = "auth-required"
	StateUnknown       = "unknown"
)

// flexString accepts both JSON strings and bare numbers. Some buyer
// clients send numeric message ids; the protocol wants strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// Message is one inbound or outbound A2A message.
type Message struct {
	Kind      string         `json:"kind,omitempty"`
	MessageID flexString     `json:"messageId,omitempty"`
	Role      string         `json:"role,omitempty"`
	Parts     []Part         `json:"parts"`
	ContextID string         `json:"contextId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Part is one ordered content part. Kind is the current discriminator;
// Type is the older alias still sent by some clients.
type Part struct {
	Kind string          `json:"kind,omitempty"`
	Type string          `json:"type,omitempty"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// discriminator returns the effective part kind, inferring it from
// content when neither discriminator field is present.
func (p Part) discriminator() string {
	switch {
	case p.Kind != "":
		return p.Kind
	case p.Type != "":
		return p.Type
	case len(p.Data) > 0:
		return "data"
	case p.Text != "":
		return "text"
	}
	return ""
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: "text", Text: text}
}

// DataPart builds a data part from any JSON-marshalable value.
func DataPart(v any) Part {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = []byte(`{}`)
	}
	return Part{Kind: "data", Data: raw}
}

// TaskStatus is a point-in-time task state snapshot.
type TaskStatus struct {
	State     string   `json:"state"`
	Message   *Message `json:"message,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Artifact is one structured result attached to a task. Parts keep the
// order [summary text, payload data].
type Artifact struct {
	ArtifactID string `json:"artifactId,omitempty"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the denormalized task view returned by message/send and
// tasks/get.
type Task struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// StatusUpdateEvent is the streaming event emitted by message/stream.
type StatusUpdateEvent struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId,omitempty"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// MessageSendParams are the params of message/send and message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// MessageSendConfiguration carries per-send options, most importantly a
// push-notification config that overrides any registered one for this
// task's lifecycle webhooks.
type MessageSendConfiguration struct {
	AcceptedOutputModes    []string     `json:"acceptedOutputModes,omitempty"`
	PushNotificationConfig *push.Config `json:"pushNotificationConfig,omitempty"`
	Blocking               *bool        `json:"blocking,omitempty"`
}

// TaskIDParams are the params of tasks/get and tasks/cancel.
type TaskIDParams struct {
	ID string `json:"id"`
}

// PushConfigParams are the params of the tasks/pushNotificationConfig
// methods. ID doubles as the task id, matching the A2A method family
// where configs hang off tasks.
type PushConfigParams struct {
	ID                       string       `json:"id,omitempty"`
	TaskID                   string       `json:"taskId,omitempty"`
	PushNotificationConfigID string       `json:"pushNotificationConfigId,omitempty"`
	PushNotificationConfig   *push.Config `json:"pushNotificationConfig,omitempty"`
}

// taskID returns the task id under either accepted key.
func (p PushConfigParams) taskID() string {
	if p.TaskID != "" {
		return p.TaskID
	}
	return p.ID
}

// PushConfigResult is the result shape of the pushNotificationConfig
// set/get/list methods.
type PushConfigResult struct {
	TaskID                 string       `json:"taskId,omitempty"`
	PushNotificationConfig *push.Config `json:"pushNotificationConfig"`
}

// Envelope wraps every explicit-skill result carried in an artifact's
// data part. Payload is the operation's wire response; protocol fields
// never leak onto the domain types themselves.
type Envelope struct {
	Status                 string       `json:"status"`
	Payload                any          `json:"payload,omitempty"`
	Message                string       `json:"message,omitempty"`
	TaskID                 string       `json:"task_id,omitempty"`
	ContextID              string       `json:"context_id,omitempty"`
	PushNotificationConfig *push.Config `json:"push_notification_config,omitempty"`
	Timestamp              string       `json:"timestamp,omitempty"`
}
