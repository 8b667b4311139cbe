package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDiscussionWinsOverCommand(t *testing.T) {
	// Both marker families are present; discussion takes priority.
	assert.Equal(t, Conversation, Classify("I think you could read the config file"))
	assert.Equal(t, Conversation, Classify("Do you think we should search for alternatives?"))
}

func TestClassifyConversation(t *testing.T) {
	cases := []string{
		"I think this might be broken",
		"There is a problem with the session layer",
		"What if we used a different protocol?",
		"Let's discuss the architecture",
		"In my opinion the cache is too small",
		"Nice weather today",
	}
	for _, msg := range cases {
		assert.Equal(t, Conversation, Classify(msg), "message: %q", msg)
	}
}

func TestClassifyToolUse(t *testing.T) {
	cases := []string{
		"Can you read the config file",
		"Please list the open tickets",
		"search for golang websocket examples",
		"Help me find the memory leak",
		"Analyze the codebase and report hotspots",
		"I want you to check the logs",
	}
	for _, msg := range cases {
		assert.Equal(t, ToolUse, Classify(msg), "message: %q", msg)
	}
}

func TestClassifyCreateContextual(t *testing.T) {
	assert.Equal(t, ToolUse, Classify("We need to create a migration script"))
	assert.Equal(t, Conversation, Classify("Creating a new service might cause problems"))
	assert.Equal(t, Conversation, Classify("create"))
}

func TestExtractToolCallsAllForms(t *testing.T) {
	out := "First TOOL[read_file], then TOOL::echo(msg) and finally TOOL:get_context done"
	assert.Equal(t, []string{"read_file", "echo", "get_context"}, ExtractToolCalls(out))
}

func TestExtractToolCallsDedupePreservesOrder(t *testing.T) {
	out := "Use TOOL[wikipedia] then TOOL[read_file] then TOOL[WIKIPEDIA] again"
	assert.Equal(t, []string{"wikipedia", "read_file"}, ExtractToolCalls(out))
}

func TestExtractToolCallsNone(t *testing.T) {
	assert.Nil(t, ExtractToolCalls("no calls here, just mentioning tools in prose"))
	assert.Nil(t, ExtractToolCalls(""))
}

func TestExtractToolCallsCaseInsensitiveKeyword(t *testing.T) {
	assert.Equal(t, []string{"echo"}, ExtractToolCalls("tool[echo] at line start"))
}

func TestImplicitTools(t *testing.T) {
	out := "I'll search the web for that and then read the file you mentioned."
	assert.Equal(t, []string{"online_search", "read_file"}, ImplicitTools(out))
	assert.Empty(t, ImplicitTools("nothing actionable here"))
}
