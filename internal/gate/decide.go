package gate

import (
	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/state"
)

// User-facing notices for control commands.
const (
	MessageActivated   = "🎯 Prompt orchestrator activated"
	MessageDeactivated = "⏸️ Prompt orchestrator deactivated"
	MessageReset       = "🔄 Orchestrator state reset"
)

// Decision is a classified prompt together with the transition it causes.
type Decision struct {
	Disposition Disposition

	// State is the session record after the transition.
	State state.SessionState

	// Persist is set when State must be written back.
	Persist bool

	// Reset is set when the persisted record must be deleted.
	Reset bool

	Response *Response
}

// Decide classifies prompt and computes the resulting state and response.
// It performs no I/O.
func Decide(prompt string, st state.SessionState, cfg *config.PluginConfig) Decision {
	d := Classify(prompt, st, cfg.Bypass)
	dec := Decision{Disposition: d, State: st}

	switch d {
	case DispositionCommandOn:
		dec.State.Active = true
		dec.State.BypassActive = false
		dec.Persist = true
		dec.Response = commandResponse(MessageActivated, &dec.State)

	case DispositionCommandOff:
		dec.State.Active = false
		dec.State.BypassActive = true
		dec.Persist = true
		dec.Response = commandResponse(MessageDeactivated, &dec.State)

	case DispositionCommandStatus:
		dec.Response = commandResponse(StatusMessage(st), nil)

	case DispositionCommandReset:
		dec.Reset = true
		dec.Response = commandResponse(MessageReset, nil)

	case DispositionFollowupAnswer:
		dec.State.WaitingForFollowup = false
		dec.State.OrchestrationInProgress = false
		dec.Persist = true
		dec.Response = bypassResponse(d)

	case DispositionBypassPrefix, DispositionBypassCommand, DispositionManualBypass:
		dec.Response = bypassResponse(d)

	case DispositionInactive:
		dec.Response = passthroughResponse()

	case DispositionTrigger:
		dec.State.OrchestrationInProgress = true
		dec.State.LastPrompt = prompt
		dec.State.DiscoveryRound++
		dec.Persist = true
		dec.Response = triggerResponse(prompt, dec.State, cfg.PromptTemplate())
	}

	return dec
}

// StatusMessage renders the /orchestrator status notice for st.
func StatusMessage(st state.SessionState) string {
	status := "🔴 Inactive"
	if st.Active {
		status = "🟢 Active"
	}
	if st.OrchestrationInProgress {
		status += " (orchestrating...)"
	}
	return "Status: " + status
}
