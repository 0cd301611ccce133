package gate

import (
	"github.com/boshu2/promptorch/cli/internal/state"
)

// Response is the JSON object the prompt gate writes to stdout.
type Response struct {
	Continue    bool   `json:"continue"`
	Orchestrate bool   `json:"orchestrate"`
	Message     string `json:"message,omitempty"`

	// BypassReason names the bypass disposition.
	BypassReason string `json:"bypass_reason,omitempty"`

	// UpdateSession echoes the record written by on/off.
	UpdateSession *state.SessionState `json:"update_session,omitempty"`

	// Trigger fields, set only when Orchestrate is true.
	Prompt         *string             `json:"prompt,omitempty"`
	SessionState   *state.SessionState `json:"session_state,omitempty"`
	PromptTemplate *string             `json:"prompt_template,omitempty"`
}

func commandResponse(message string, updated *state.SessionState) *Response {
	r := &Response{Continue: true, Message: message}
	if updated != nil {
		cp := *updated
		r.UpdateSession = &cp
	}
	return r
}

func bypassResponse(d Disposition) *Response {
	return &Response{Continue: true, BypassReason: d.String()}
}

func passthroughResponse() *Response {
	return &Response{Continue: true}
}

func triggerResponse(prompt string, st state.SessionState, template string) *Response {
	return &Response{
		Continue:       true,
		Orchestrate:    true,
		Prompt:         &prompt,
		SessionState:   &st,
		PromptTemplate: &template,
	}
}
