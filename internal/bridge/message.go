package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ParseErrorID is the correlation id used when no usable id could be
// recovered from malformed input.
const ParseErrorID = "parse-error"

// Message is one call from the web content to a native module.
type Message struct {
	ID      string `json:"id"`
	Module  string `json:"module"`
	Action  string `json:"action"`
	Payload Value  `json:"payload"`
}

type wireMessage struct {
	ID      *string         `json:"id"`
	Module  *string         `json:"module"`
	Action  *string         `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

var errNotObject = errors.New("message must be a JSON object")

// ParseMessage decodes and validates a call. id, module and action are
// required non-empty strings; payload may be omitted.
func ParseMessage(raw []byte) (Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Message{}, errNotObject
	}

	var wire wireMessage
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return Message{}, err
	}

	switch {
	case wire.ID == nil || *wire.ID == "":
		return Message{}, errors.New("missing id")
	case wire.Module == nil || *wire.Module == "":
		return Message{}, errors.New("missing module")
	case wire.Action == nil || *wire.Action == "":
		return Message{}, errors.New("missing action")
	}

	msg := Message{ID: *wire.ID, Module: *wire.Module, Action: *wire.Action}
	if len(wire.Payload) > 0 {
		if err := msg.Payload.UnmarshalJSON(wire.Payload); err != nil {
			return Message{}, fmt.Errorf("payload: %w", err)
		}
	}
	return msg, nil
}

func (m *Message) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMessage(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Response answers exactly one Message. Data is meaningful when Success is
// true, Error otherwise. A nil Data is omitted from the wire form; a non-nil
// Data holding null is written as "data":null.
type Response struct {
	ID      string
	Success bool
	Data    *Value
	Error   *string
}

func Success(id string, data Value) Response {
	return Response{ID: id, Success: true, Data: &data}
}

func Failure(id string, err error) Response {
	msg := err.Error()
	return Response{ID: id, Success: false, Error: &msg}
}

func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"id":`)
	buf.Write(id)
	buf.WriteString(`,"success":`)
	if r.Success {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	if r.Data != nil {
		data, err := r.Data.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		buf.WriteString(`,"data":`)
		buf.Write(data)
	}
	if r.Error != nil {
		msg, err := json.Marshal(*r.Error)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"error":`)
		buf.Write(msg)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out Response
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("id: %w", err)
		}
	}
	if raw, ok := fields["success"]; ok {
		if err := json.Unmarshal(raw, &out.Success); err != nil {
			return fmt.Errorf("success: %w", err)
		}
	}
	if raw, ok := fields["data"]; ok {
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("data: %w", err)
		}
		out.Data = &v
	}
	if raw, ok := fields["error"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("error: %w", err)
		}
		out.Error = &msg
	}

	*r = out
	return nil
}

// Event is pushed from native to the web content outside any call.
type Event struct {
	Type string `json:"type"`
	Data *Value `json:"data,omitempty"`
}

func NewEvent(typ string, data Value) Event {
	return Event{Type: typ, Data: &data}
}

// EventSink delivers events to the web content.
type EventSink interface {
	Emit(ev Event) error
}
