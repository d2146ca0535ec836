package models

import "encoding/json"

// EnvelopeStatus is the application-level outcome of a tool call.
type EnvelopeStatus string

const (
	StatusSuccess EnvelopeStatus = "success"
	StatusError   EnvelopeStatus = "error"
)

// Envelope is the JSON shape every tool returns, serialized to a string.
// Tools never return Go errors across the dispatch boundary; failures ride
// in the envelope so the pipeline can always produce a reply.
type Envelope struct {
	Status  EnvelopeStatus `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
}

// MetaNeedsContactButton, when present and true in an envelope's data map,
// tells the transport to attach a contact-request reply keyboard. The
// leading underscore keeps it out of the formatted reply.
const MetaNeedsContactButton = "_needs_contact_button"

// SuccessEnvelope renders a success envelope string with an optional
// message and data payload.
func SuccessEnvelope(message string, data any) string {
	return marshalEnvelope(Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// ErrorEnvelope renders an error envelope string.
func ErrorEnvelope(message string) string {
	return marshalEnvelope(Envelope{Status: StatusError, Message: message})
}

// ParseEnvelope decodes s if it is an envelope-shaped JSON object.
// The second return is false for anything else (plain text replies).
func ParseEnvelope(s string) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	if env.Status != StatusSuccess && env.Status != StatusError {
		return nil, false
	}
	return &env, true
}

func marshalEnvelope(env Envelope) string {
	b, err := json.Marshal(env)
	if err != nil {
		// Data contained something unmarshalable; degrade to a minimal
		// error envelope rather than losing the reply entirely.
		return `{"status":"error","message":"internal encoding failure"}`
	}
	return string(b)
}
