package relay

import "strings"

// Stage is the last state a message reached in the pipeline.
type Stage int

const (
	StageReceived Stage = iota
	StageGated
	StageNormalized
	StageSynthesizing
	StageDelivering
	StageCleanedUp
	StageDenied
	StageThrottled
	StageFailed
)

var stageNames = map[Stage]string{
	StageReceived:     "received",
	StageGated:        "gated",
	StageNormalized:   "normalized",
	StageSynthesizing: "synthesizing",
	StageDelivering:   "delivering",
	StageCleanedUp:    "cleaned_up",
	StageDenied:       "denied",
	StageThrottled:    "throttled",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Outcome reports how far a message got. Artifact is the output path used,
// if synthesis was attempted; the file never outlives the call.
type Outcome struct {
	Stage    Stage
	Artifact string
	Err      error
}

// Delivered reports whether a voice reply reached the chat.
func (o Outcome) Delivered() bool {
	return o.Stage == StageCleanedUp && o.Err == nil
}

// IsGreeting reports whether text is the /start or /help command, optionally
// addressed to a bot as in "/start@my_bot".
func IsGreeting(text string) bool {
	cmd, ok := commandName(text)
	return ok && (cmd == "start" || cmd == "help")
}

// commandName returns the command word of text. Like Bot API clients, it
// only recognises text that starts with "/" and matches case-sensitively.
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd, cmd != ""
}
