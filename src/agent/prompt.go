package agent

import (
	"fmt"
	"strings"

	"github.com/aide-project/aide/src/memory"
	"github.com/aide-project/aide/src/tools"
)

// BuildToolBlock renders the catalog section of a tool-mode prompt. The
// output depends only on the serialized catalog, so callers memoize it
// per registry revision.
func BuildToolBlock(specs []tools.Spec) string {
	var b strings.Builder
	b.WriteString("You have access to the following tools:\n")
	for _, s := range specs {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	b.WriteString("\nTo use a tool, include TOOL[tool_name] in your response.\n")
	return b.String()
}

// BuildToolPrompt composes the full tool-mode prompt.
func BuildToolPrompt(toolBlock, memories, message string) string {
	var b strings.Builder
	b.WriteString("You are a coding assistant working inside the user's project.\n\n")
	b.WriteString(toolBlock)
	if memories != "" {
		b.WriteString("\nRelevant context from earlier sessions:\n")
		b.WriteString(memories)
		b.WriteString("\n")
	}
	b.WriteString("\nUser request: ")
	b.WriteString(message)
	return b.String()
}

// BuildChatPrompt composes the conversation-mode prompt.
func BuildChatPrompt(memories, message string) string {
	var b strings.Builder
	b.WriteString("You are a helpful coding assistant. Answer conversationally.\n")
	if memories != "" {
		b.WriteString("\nRelevant context from earlier sessions:\n")
		b.WriteString(memories)
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}

// FormatMemories renders recalled records as prompt bullet lines.
func FormatMemories(recs []memory.Record) string {
	if len(recs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(r.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

// CannedReply is the degraded answer used when no model backend can be
// reached.
func CannedReply(message string) string {
	return fmt.Sprintf("I couldn't reach a language model just now, so here is what I can do: "+
		"I registered your message (%q) and my tools are still available. "+
		"Try an explicit command like asking me to read a file or search the web.",
		strings.TrimSpace(message))
}
