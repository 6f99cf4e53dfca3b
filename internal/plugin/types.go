// Package plugin runs external executables in response to coaching events.
//
// A plugin lives in its own directory under the plugin root with a plugin.json
// manifest naming its executable and the events it wants. For each event the
// executable receives one JSON Request on stdin and answers with a Response on stdout.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the events it subscribes to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Wants reports whether the manifest subscribes to event. An empty list subscribes to all.
func (m Manifest) Wants(event string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// Request is sent to a plugin for one event.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Response is the plugin's answer.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
