// Package mode decides how an incoming message should be handled and
// pulls explicit tool invocations out of model output.
package mode

import "strings"

// Mode is the handling route chosen for a message.
type Mode string

const (
	// Conversation routes the message straight to chat generation.
	Conversation Mode = "conversation"
	// ToolUse routes the message through tool-aware prompting and dispatch.
	ToolUse Mode = "tool_use"
)

// discussionMarkers signal that the user is reasoning out loud rather
// than asking for an action. They win over command markers.
var discussionMarkers = []string{
	"i think",
	"i believe",
	"opinion",
	"what if",
	"do you think",
	"this might",
	"this could",
	"this may",
	"problem with",
	"issue with",
	"concerns about",
	"discuss",
}

// commandMarkers signal a direct request for the agent to act.
var commandMarkers = []string{
	"please",
	"can you",
	"help me",
	"show me",
	"read the",
	"search for",
	"find the",
	"analyze the",
	"check the",
	"go ahead and",
	"i want you to",
	"i need you to",
}

// imperativeCues tip an ambiguous "create" message toward action.
var imperativeCues = []string{
	"want", "need", "should", "please", "can you", "help",
}

// hedgingCues tip an ambiguous "create" message toward discussion.
var hedgingCues = []string{
	"think", "might", "could", "may", "problem", "issue", "concern",
}

// Classify routes a message. Discussion markers take priority over
// command markers, so "I think you could read the file" still counts as
// conversation. Messages with neither marker default to conversation,
// except that "create" is weighed against surrounding cues.
func Classify(message string) Mode {
	lower := strings.ToLower(message)

	for _, m := range discussionMarkers {
		if strings.Contains(lower, m) {
			return Conversation
		}
	}
	for _, m := range commandMarkers {
		if strings.Contains(lower, m) {
			return ToolUse
		}
	}
	if strings.Contains(lower, "create") {
		for _, c := range hedgingCues {
			if strings.Contains(lower, c) {
				return Conversation
			}
		}
		for _, c := range imperativeCues {
			if strings.Contains(lower, c) {
				return ToolUse
			}
		}
	}
	return Conversation
}
