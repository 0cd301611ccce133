// Package state holds the per-project orchestrator session record and the
// repository that persists it between hook invocations.
//
// Each hook invocation is a fresh process, so the record on disk is the only
// state that survives from one prompt to the next. Loading always merges the
// persisted record over Default field by field; a file written by an older
// version that lacks newer fields still loads with sensible values. Keys this
// package does not know, such as those written by the orchestration process,
// are carried in Extra and written back unchanged.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SessionState is the persisted orchestrator record for one project directory.
type SessionState struct {
	// Active enables orchestration gating.
	Active bool `json:"active" yaml:"active"`

	// DiscoveryRound counts orchestration triggers issued this session.
	DiscoveryRound int `json:"discovery_round" yaml:"discovery_round"`

	// QualityScore is owned by the external orchestration process.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// LastPrompt is the most recent prompt that triggered orchestration.
	LastPrompt string `json:"last_prompt" yaml:"last_prompt"`

	// OrchestrationInProgress is set between a trigger and its followup answer.
	OrchestrationInProgress bool `json:"orchestration_in_progress" yaml:"orchestration_in_progress"`

	// WaitingForFollowup makes the next prompt count as an answer to the
	// in-flight orchestration round.
	WaitingForFollowup bool `json:"waiting_for_followup" yaml:"waiting_for_followup"`

	// BypassActive forces every prompt to bypass, independent of Active.
	BypassActive bool `json:"bypass_active" yaml:"bypass_active"`

	// Extra holds unrecognized keys from the persisted record. Nil when there
	// are none.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var knownKeys = map[string]bool{
	"active":                    true,
	"discovery_round":           true,
	"quality_score":             true,
	"last_prompt":               true,
	"orchestration_in_progress": true,
	"waiting_for_followup":      true,
	"bypass_active":             true,
}

// MarshalJSON writes the known fields and every Extra key. Known fields win
// over an Extra key of the same name.
func (s SessionState) MarshalJSON() ([]byte, error) {
	type plain SessionState
	known, err := encodeJSON(plain(s))
	if err != nil || len(s.Extra) == 0 {
		return known, err
	}

	fields := make(map[string]json.RawMessage, len(s.Extra)+len(knownKeys))
	for k, v := range s.Extra {
		fields[k] = v
	}
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	return encodeJSON(fields)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Default returns the record used when nothing has been persisted yet.
func Default() SessionState {
	return SessionState{}
}

// sessionStateOverlay mirrors SessionState with pointer fields so a decoded
// file can tell "absent" apart from "zero".
type sessionStateOverlay struct {
	Active                  *bool    `json:"active"`
	DiscoveryRound          *int     `json:"discovery_round"`
	QualityScore            *float64 `json:"quality_score"`
	LastPrompt              *string  `json:"last_prompt"`
	OrchestrationInProgress *bool    `json:"orchestration_in_progress"`
	WaitingForFollowup      *bool    `json:"waiting_for_followup"`
	BypassActive            *bool    `json:"bypass_active"`
}

// Merge decodes data and overlays every field present in it onto base.
// Fields missing from data (or set to null) keep their base value.
func Merge(base SessionState, data []byte) (SessionState, error) {
	var o sessionStateOverlay
	if err := json.Unmarshal(data, &o); err != nil {
		return base, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	mergeBool(&base.Active, o.Active)
	if o.DiscoveryRound != nil {
		base.DiscoveryRound = *o.DiscoveryRound
	}
	if o.QualityScore != nil {
		base.QualityScore = *o.QualityScore
	}
	if o.LastPrompt != nil {
		base.LastPrompt = *o.LastPrompt
	}
	mergeBool(&base.OrchestrationInProgress, o.OrchestrationInProgress)
	mergeBool(&base.WaitingForFollowup, o.WaitingForFollowup)
	mergeBool(&base.BypassActive, o.BypassActive)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	base.Extra = extra

	return base, nil
}

func mergeBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
