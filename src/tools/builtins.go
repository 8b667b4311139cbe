package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aide-project/aide/src/search"
)

type echoArgs struct {
	Message string `json:"message" jsonschema_description:"Text to echo back"`
}

type readFileArgs struct {
	Path string `json:"path" jsonschema_description:"Path of the file to read, relative to the workspace root"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema_description:"Search query to run against the provider chain"`
}

type analyzeArgs struct {
	Path string `json:"path,omitempty" jsonschema_description:"Subdirectory to analyze, defaults to the workspace root"`
}

// Builtins returns the tools every deployment ships with. root confines
// all file access; chain backs the online_search tool and may be nil.
func Builtins(root string, chain *search.Chain) []Tool {
	ts := []Tool{
		NewFuncTool("echo", "Echo the provided message back to the caller.",
			GenerateSchema[echoArgs](), echoHandler),
		NewFuncTool("read_file", "Read a file from the workspace and return its contents.",
			GenerateSchema[readFileArgs](), readFileHandler(root)),
		NewFuncTool("get_context", "Summarize the current workspace context.",
			GenerateSchema[analyzeArgs](), contextHandler(root)),
		NewFuncTool("analyze_codebase", "Walk the workspace and report file counts per language.",
			GenerateSchema[analyzeArgs](), analyzeHandler(root)),
	}
	if chain != nil {
		ts = append(ts, NewFuncTool("online_search",
			"Search the web through the configured provider chain.",
			GenerateSchema[searchArgs](), searchHandler(chain)))
	}
	return ts
}

func echoHandler(_ context.Context, args map[string]any) (map[string]any, error) {
	msg, _ := args["message"].(string)
	return map[string]any{"echo": msg}, nil
}

// resolveInWorkspace rejects any path that escapes root once cleaned.
func resolveInWorkspace(root, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	abs := filepath.Join(root, filepath.Clean("/"+p))
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q is outside the workspace", p)
	}
	return abs, nil
}

func readFileHandler(root string) Handler {
	return func(_ context.Context, args map[string]any) (map[string]any, error) {
		p, _ := args["path"].(string)
		abs, err := resolveInWorkspace(root, p)
		if err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		content := string(raw)
		return map[string]any{
			"content": content,
			"path":    p,
			"size":    len(raw),
			"lines":   strings.Count(content, "\n") + 1,
		}, nil
	}
}

func contextHandler(root string) Handler {
	return func(_ context.Context, args map[string]any) (map[string]any, error) {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read workspace: %w", err)
		}
		var dirs, files []string
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if e.IsDir() {
				dirs = append(dirs, e.Name())
			} else {
				files = append(files, e.Name())
			}
		}
		return map[string]any{
			"workspace":   root,
			"directories": dirs,
			"files":       files,
		}, nil
	}
}

func analyzeHandler(root string) Handler {
	return func(_ context.Context, args map[string]any) (map[string]any, error) {
		sub, _ := args["path"].(string)
		start := root
		if sub != "" {
			var err error
			start, err = resolveInWorkspace(root, sub)
			if err != nil {
				return nil, err
			}
		}

		byExt := map[string]int{}
		total := 0
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" {
					return filepath.SkipDir
				}
				return nil
			}
			total++
			ext := filepath.Ext(name)
			if ext == "" {
				ext = "(none)"
			}
			byExt[ext]++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", start, err)
		}

		exts := make([]string, 0, len(byExt))
		for e := range byExt {
			exts = append(exts, e)
		}
		sort.Slice(exts, func(i, j int) bool {
			if byExt[exts[i]] != byExt[exts[j]] {
				return byExt[exts[i]] > byExt[exts[j]]
			}
			return exts[i] < exts[j]
		})

		counts := make(map[string]any, len(byExt))
		for e, n := range byExt {
			counts[e] = n
		}
		return map[string]any{
			"path":           start,
			"total_files":    total,
			"by_extension":   counts,
			"top_extensions": exts[:min(5, len(exts))],
		}, nil
	}
}

func searchHandler(chain *search.Chain) Handler {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query is required")
		}
		answer, provider, err := chain.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"result":   answer,
			"provider": provider,
		}, nil
	}
}
