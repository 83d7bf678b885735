// Package stream carries pipeline output from a run to its subscriber:
// line framing, producer classification, the bounded event bus and the
// wire encoders.
package stream

import (
	"encoding/json"
	"time"
)

// Kind identifies the type of a run event.
type Kind string

const (
	KindStart     Kind = "start"
	KindLog       Kind = "log"
	KindHeartbeat Kind = "heartbeat"
	KindResult    Kind = "result"
	KindDone      Kind = "done"
)

// Event is one item on a run's bus.
type Event struct {
	Kind      Kind
	Agent     string
	Message   string
	Success   bool
	Output    string
	Error     string
	Timestamp time.Time
}

func Start(message string, at time.Time) Event {
	return Event{Kind: KindStart, Message: message, Timestamp: at}
}

func Log(agent, message string, at time.Time) Event {
	return Event{Kind: KindLog, Agent: agent, Message: message, Timestamp: at}
}

func Heartbeat(at time.Time) Event {
	return Event{Kind: KindHeartbeat, Timestamp: at}
}

// Succeeded builds a successful result event carrying output.
func Succeeded(output string, at time.Time) Event {
	return Event{Kind: KindResult, Success: true, Output: output, Timestamp: at}
}

// Failed builds a failed result event carrying an error description.
func Failed(errText string, at time.Time) Event {
	return Event{Kind: KindResult, Success: false, Error: errText, Timestamp: at}
}

func Done(at time.Time) Event {
	return Event{Kind: KindDone, Timestamp: at}
}

// Name returns the SSE event name, empty for unnamed data frames.
func (e Event) Name() string {
	switch e.Kind {
	case KindResult, KindDone:
		return string(e.Kind)
	default:
		return ""
	}
}

// timeFormat is ISO-8601 with fractional seconds.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

type startPayload struct {
	Type      Kind   `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type logPayload struct {
	Type      Kind   `json:"type"`
	Agent     string `json:"agent"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type tickPayload struct {
	Type      Kind   `json:"type"`
	Timestamp string `json:"timestamp"`
}

type resultPayload struct {
	Type    Kind    `json:"type,omitempty"`
	Success bool    `json:"success"`
	Output  *string `json:"output,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// MarshalJSON renders the SSE data payload of the event.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.payload(false))
}

// JSONMessage renders the event as a self-describing JSON message. Unlike the
// SSE data payload, result messages carry a "type" field.
func (e Event) JSONMessage() ([]byte, error) {
	return json.Marshal(e.payload(true))
}

func (e Event) payload(typed bool) any {
	ts := e.Timestamp.UTC().Format(timeFormat)
	switch e.Kind {
	case KindStart:
		return startPayload{Type: e.Kind, Message: e.Message, Timestamp: ts}
	case KindLog:
		return logPayload{Type: e.Kind, Agent: e.Agent, Message: e.Message, Timestamp: ts}
	case KindResult:
		p := resultPayload{Success: e.Success}
		if typed {
			p.Type = KindResult
		}
		if e.Success {
			out := e.Output
			p.Output = &out
		} else {
			msg := e.Error
			p.Error = &msg
		}
		return p
	default:
		return tickPayload{Type: e.Kind, Timestamp: ts}
	}
}
