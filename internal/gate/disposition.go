// Package gate decides what happens to each submitted prompt.
//
// Classify maps a prompt to exactly one Disposition using a fixed priority
// order; the first matching rule wins and later rules are never evaluated:
//
//	control command > bypass prefix > bypass command > followup answer >
//	manual bypass > inactive > trigger
//
// Decide applies the disposition's state transition without touching disk,
// and Gate wires Decide to a state.Repository.
package gate

import (
	"strings"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/state"
)

// Disposition is the outcome of classifying a prompt. Values are declared in
// priority order.
type Disposition int

const (
	DispositionCommandOn Disposition = iota
	DispositionCommandOff
	DispositionCommandStatus
	DispositionCommandReset
	DispositionBypassPrefix
	DispositionBypassCommand
	DispositionFollowupAnswer
	DispositionManualBypass
	DispositionInactive
	DispositionTrigger
)

// Control command literals, compared after trimming and lower-casing.
const (
	CommandOn     = "/orchestrator on"
	CommandOff    = "/orchestrator off"
	CommandStatus = "/orchestrator status"
	CommandReset  = "/orchestrator reset"
)

var controlCommands = map[string]Disposition{
	CommandOn:     DispositionCommandOn,
	CommandOff:    DispositionCommandOff,
	CommandStatus: DispositionCommandStatus,
	CommandReset:  DispositionCommandReset,
}

// String returns the wire name of d. Bypass dispositions use the names
// reported in bypass_reason.
func (d Disposition) String() string {
	switch d {
	case DispositionCommandOn:
		return "command_on"
	case DispositionCommandOff:
		return "command_off"
	case DispositionCommandStatus:
		return "command_status"
	case DispositionCommandReset:
		return "command_reset"
	case DispositionBypassPrefix:
		return "bypass_prefix"
	case DispositionBypassCommand:
		return "bypass_command"
	case DispositionFollowupAnswer:
		return "followup_answer"
	case DispositionManualBypass:
		return "manual_bypass"
	case DispositionInactive:
		return "inactive"
	case DispositionTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// IsControlCommand reports whether d is one of the /orchestrator commands.
func (d Disposition) IsControlCommand() bool {
	return d >= DispositionCommandOn && d <= DispositionCommandReset
}

// IsBypass reports whether d skips orchestration with a bypass_reason.
func (d Disposition) IsBypass() bool {
	return d >= DispositionBypassPrefix && d <= DispositionManualBypass
}

// Classify returns the disposition for prompt given the current session
// record and bypass configuration.
func Classify(prompt string, st state.SessionState, bypass config.BypassConfig) Disposition {
	if d, ok := controlCommands[strings.ToLower(strings.TrimSpace(prompt))]; ok {
		return d
	}

	// Raw, case-sensitive and untrimmed. Empty entries match nothing.
	if bypass.Prefix != "" && strings.HasPrefix(prompt, bypass.Prefix) {
		return DispositionBypassPrefix
	}

	trimmed := strings.TrimSpace(prompt)
	for _, cmd := range bypass.Commands {
		if cmd != "" && strings.HasPrefix(trimmed, cmd) {
			return DispositionBypassCommand
		}
	}

	if st.WaitingForFollowup {
		return DispositionFollowupAnswer
	}
	if st.BypassActive {
		return DispositionManualBypass
	}
	if !st.Active {
		return DispositionInactive
	}
	return DispositionTrigger
}
