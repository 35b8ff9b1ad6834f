package protocol

import "encoding/json"

// RequestFrame is a client-to-server frame: {type:"req", id, method, params?}.
type RequestFrame struct {
	Type   string          `json:"type"`
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ResponseFrame is a server-to-client frame: {type:"res", id, ok, payload?, error?}.
type ResponseFrame struct {
	Type    string          `json:"type"`
	ID      json.RawMessage `json:"id"`
	OK      bool            `json:"ok"`
	Payload interface{}     `json:"payload,omitempty"`
	Error   *WireError      `json:"error,omitempty"`
}

// EventFrame is a server-pushed frame: {type:"event", event, payload, seq}.
type EventFrame struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
	Seq     uint64      `json:"seq"`
}

// WireError is the error shape carried on a failed response.
type WireError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewResponse builds a successful response frame.
func NewResponse(id json.RawMessage, payload interface{}) *ResponseFrame {
	return &ResponseFrame{Type: FrameResponse, ID: id, OK: true, Payload: payload}
}

// NewErrorResponse builds a failed response frame.
func NewErrorResponse(id json.RawMessage, code, message string, details interface{}) *ResponseFrame {
	return &ResponseFrame{
		Type:  FrameResponse,
		ID:    id,
		OK:    false,
		Error: &WireError{Code: code, Message: message, Details: details},
	}
}

// NewEvent builds an event frame; seq is assigned by the caller at send time.
func NewEvent(event string, payload interface{}, seq uint64) *EventFrame {
	return &EventFrame{Type: FrameEvent, Event: event, Payload: payload, Seq: seq}
}
