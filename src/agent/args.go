package agent

import (
	"regexp"
	"strings"
)

// Context carries per-message client state that argument derivation may
// draw on.
type Context struct {
	CurrentFile string `json:"currentFile,omitempty"`
	Workspace   string `json:"workspace,omitempty"`
}

var (
	// pathPattern matches a file-looking token: at least one path
	// separator or a recognizable extension at a word boundary.
	pathPattern = regexp.MustCompile(`(?:[\w./-]+/)?[\w.-]+\.(?:go|py|js|ts|json|ya?ml|toml|md|txt|sh|sql|html|css|rs|java|c|h|cpp)\b`)

	// queryPatterns pull a search query out of the user's phrasing.
	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)search (?:the web )?for (.+)`),
		regexp.MustCompile(`(?i)look up (.+)`),
		regexp.MustCompile(`(?i)what is (.+)`),
		regexp.MustCompile(`(?i)who is (.+)`),
		regexp.MustCompile(`(?i)find (?:me )?(.+)`),
	}
)

// DeriveArgs infers the arguments for a tool from the user message and
// client context, since the extraction syntax names tools but never
// carries parameters.
func DeriveArgs(tool, message string, mctx Context) map[string]any {
	switch tool {
	case "read_file":
		if p := pathPattern.FindString(message); p != "" {
			return map[string]any{"path": p}
		}
		if mctx.CurrentFile != "" {
			return map[string]any{"path": mctx.CurrentFile}
		}
		return map[string]any{}
	case "analyze_codebase", "get_context":
		if mctx.Workspace != "" {
			return map[string]any{"path": mctx.Workspace}
		}
		return map[string]any{}
	case "online_search":
		return map[string]any{"query": deriveQuery(message)}
	case "echo":
		return map[string]any{"message": message}
	default:
		// Unknown tools get the raw message so script tools can parse
		// what they need.
		return map[string]any{"message": message}
	}
}

func deriveQuery(message string) string {
	for _, p := range queryPatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			return strings.TrimRight(strings.TrimSpace(m[1]), "?.!")
		}
	}
	return strings.TrimSpace(message)
}
