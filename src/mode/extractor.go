package mode

import (
	"regexp"
	"strings"
)

// callPattern matches the three invocation spellings a model may emit:
// TOOL[name], TOOL::name(...) and TOOL:name. One alternation keeps the
// scan in document order across all three forms.
var callPattern = regexp.MustCompile(`(?i)TOOL(?:\[(\w+)\]|::(\w+)\(|:(\w+))`)

// ExtractToolCalls returns the tool names referenced in model output,
// lower-cased, deduplicated case-insensitively, in order of first
// appearance.
func ExtractToolCalls(output string) []string {
	matches := callPattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name == "" {
			name = m[3]
		}
		name = strings.ToLower(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// implicitTriggers maps content keywords to the tool they imply when the
// model describes an action without using the explicit syntax.
var implicitTriggers = []struct {
	keywords []string
	tool     string
}{
	{[]string{"search the web", "look that up", "search online", "web search"}, "online_search"},
	{[]string{"read the file", "open the file", "file contents"}, "read_file"},
	{[]string{"analyze the codebase", "scan the project", "project structure"}, "analyze_codebase"},
	{[]string{"current context", "workspace context"}, "get_context"},
}

// ImplicitTools infers tool intent from prose when no explicit call
// syntax is present. Explicit calls always win; this only fills the gap
// when ExtractToolCalls comes back empty.
func ImplicitTools(output string) []string {
	lower := strings.ToLower(output)
	seen := make(map[string]bool)
	var names []string
	for _, trig := range implicitTriggers {
		for _, kw := range trig.keywords {
			if strings.Contains(lower, kw) && !seen[trig.tool] {
				seen[trig.tool] = true
				names = append(names, trig.tool)
				break
			}
		}
	}
	return names
}
