package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const (
	defaultScriptTimeout = 30 * time.Second
	maxScriptOutput      = 10 * 1024
)

// interpreters is the allow-list of commands a script tool may run under.
var interpreters = map[string]bool{
	"bash":    true,
	"sh":      true,
	"python3": true,
	"node":    true,
}

// ScriptTool runs an on-disk script in a subprocess. Arguments reach the
// script twice: flattened as TOOL_PARAM_<NAME> environment variables for
// shell scripts, and as a JSON object on stdin (mirrored in
// TOOL_PARAMS_JSON) for everything else. Stdout is parsed as a JSON
// object when possible, otherwise wrapped as {"result": <text>}.
type ScriptTool struct {
	spec        Spec
	interpreter string
	scriptPath  string
	timeout     time.Duration
}

// NewScriptTool builds a script-backed tool. An interpreter outside the
// allow-list or a missing script file is rejected.
func NewScriptTool(spec Spec, interpreter, scriptPath string, timeout time.Duration) (*ScriptTool, error) {
	if !interpreters[interpreter] {
		return nil, &LoadError{Unit: spec.Name, Err: fmt.Errorf("interpreter %q not allowed", interpreter)}
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, &LoadError{Unit: spec.Name, Err: err}
	}
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	return &ScriptTool{
		spec:        spec,
		interpreter: interpreter,
		scriptPath:  scriptPath,
		timeout:     timeout,
	}, nil
}

func (s *ScriptTool) Spec() Spec { return s.spec }

func (s *ScriptTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	paramsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.interpreter, s.scriptPath)
	// Scripts run in their own process group so cancellation kills any
	// children they spawned, not just the interpreter.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), "TOOL_PARAMS_JSON="+string(paramsJSON))
	for k, v := range args {
		cmd.Env = append(cmd.Env, "TOOL_PARAM_"+envKey(k)+"="+fmt.Sprint(v))
	}
	cmd.Stdin = bytes.NewReader(paramsJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("script timed out after %s", s.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("script failed: %s", truncate(msg, maxScriptOutput))
	}

	out := truncate(strings.TrimSpace(stdout.String()), maxScriptOutput)
	var parsed map[string]any
	if json.Unmarshal([]byte(out), &parsed) == nil && parsed != nil {
		return parsed, nil
	}
	return map[string]any{"result": out}, nil
}

func envKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(k) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [truncated]"
}
