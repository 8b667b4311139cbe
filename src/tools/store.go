package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// validToolName restricts tool identifiers to the same set the protocol
// extraction patterns can match.
var validToolName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// scriptExtensions maps an interpreter to the file extension its scripts
// are persisted under.
var scriptExtensions = map[string]string{
	"bash":    ".sh",
	"sh":      ".sh",
	"python3": ".py",
	"node":    ".js",
}

// definition is the on-disk form of a stored tool unit.
type definition struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ArgsSchema     map[string]any `json:"args_schema"`
	Interpreter    string         `json:"interpreter"`
	ScriptFile     string         `json:"script_file"`
	TimeoutSeconds int            `json:"timeout_seconds,omitempty"`
}

// manifest lists the units the store considers live. Units on disk but
// absent from the manifest are ignored, which makes deletion a manifest
// edit rather than a file race.
type manifest struct {
	Tools []string `json:"tools"`
}

// Store persists script tools under a single directory: a manifest.json,
// one <name>.json definition per unit, and the script file it points at.
type Store struct {
	dir            string
	defaultTimeout time.Duration
}

// NewStore creates the backing directory if needed. defaultTimeout
// applies to units whose definition carries no timeout of its own; zero
// falls through to the script-tool default.
func NewStore(dir string, defaultTimeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tool store: %w", err)
	}
	return &Store{dir: dir, defaultTimeout: defaultTimeout}, nil
}

// Dir returns the store's root directory.
func (st *Store) Dir() string { return st.dir }

// Save persists a full definition plus its script body and updates the
// manifest. It returns the loaded tool ready for registration.
func (st *Store) Save(def definition, script string) (*ScriptTool, error) {
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if !validToolName.MatchString(name) {
		return nil, &LoadError{Unit: def.Name, Err: fmt.Errorf("invalid tool name %q", def.Name)}
	}
	def.Name = name

	ext, ok := scriptExtensions[def.Interpreter]
	if !ok {
		return nil, &LoadError{Unit: name, Err: fmt.Errorf("interpreter %q not allowed", def.Interpreter)}
	}
	if def.ScriptFile == "" {
		def.ScriptFile = name + ext
	}

	scriptPath := filepath.Join(st.dir, def.ScriptFile)
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return nil, &LoadError{Unit: name, Err: err}
	}

	raw, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, &LoadError{Unit: name, Err: err}
	}
	if err := os.WriteFile(filepath.Join(st.dir, name+".json"), raw, 0o644); err != nil {
		return nil, &LoadError{Unit: name, Err: err}
	}
	if err := st.addToManifest(name); err != nil {
		return nil, err
	}
	return st.build(def)
}

// SaveScript persists raw source as a new unit, inferring the interpreter
// from its shebang line. Bash is the default when there is none.
func (st *Store) SaveScript(name, code string) (*ScriptTool, error) {
	interp := "bash"
	if strings.HasPrefix(code, "#!") {
		line, _, _ := strings.Cut(code, "\n")
		switch {
		case strings.Contains(line, "python"):
			interp = "python3"
		case strings.Contains(line, "node"):
			interp = "node"
		case strings.Contains(line, "/sh"):
			interp = "sh"
		}
	}
	def := definition{
		Name:        name,
		Description: fmt.Sprintf("Runtime-loaded tool %s", strings.ToLower(strings.TrimSpace(name))),
		ArgsSchema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": true,
		},
		Interpreter: interp,
	}
	return st.Save(def, code)
}

// Load reads one unit by name.
func (st *Store) Load(name string) (*ScriptTool, error) {
	raw, err := os.ReadFile(filepath.Join(st.dir, name+".json"))
	if err != nil {
		return nil, &LoadError{Unit: name, Err: err}
	}
	var def definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, &LoadError{Unit: name, Err: err}
	}
	return st.build(def)
}

// LoadAll loads every manifest entry, logging and skipping units that
// fail. A missing or corrupt manifest yields an empty result, never an
// error, so startup proceeds with whatever is loadable.
func (st *Store) LoadAll(log *zap.Logger) []*ScriptTool {
	if log == nil {
		log = zap.NewNop()
	}
	m, err := st.readManifest()
	if err != nil {
		log.Warn("tool manifest unreadable", zap.String("dir", st.dir), zap.Error(err))
		return nil
	}
	out := make([]*ScriptTool, 0, len(m.Tools))
	for _, name := range m.Tools {
		tool, err := st.Load(name)
		if err != nil {
			log.Warn("skipping tool unit", zap.String("tool", name), zap.Error(err))
			continue
		}
		out = append(out, tool)
	}
	return out
}

// Delete removes a unit from the manifest and deletes its files.
func (st *Store) Delete(name string) error {
	m, err := st.readManifest()
	if err != nil {
		return err
	}
	kept := m.Tools[:0]
	for _, t := range m.Tools {
		if t != name {
			kept = append(kept, t)
		}
	}
	m.Tools = kept
	if err := st.writeManifest(m); err != nil {
		return err
	}
	if def, err := st.readDefinition(name); err == nil {
		os.Remove(filepath.Join(st.dir, def.ScriptFile))
	}
	os.Remove(filepath.Join(st.dir, name+".json"))
	return nil
}

func (st *Store) build(def definition) (*ScriptTool, error) {
	timeout := time.Duration(def.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = st.defaultTimeout
	}
	return NewScriptTool(
		Spec{Name: def.Name, Description: def.Description, ArgsSchema: def.ArgsSchema},
		def.Interpreter,
		filepath.Join(st.dir, def.ScriptFile),
		timeout,
	)
}

func (st *Store) readDefinition(name string) (definition, error) {
	var def definition
	raw, err := os.ReadFile(filepath.Join(st.dir, name+".json"))
	if err != nil {
		return def, err
	}
	err = json.Unmarshal(raw, &def)
	return def, err
}

func (st *Store) readManifest() (manifest, error) {
	var m manifest
	raw, err := os.ReadFile(filepath.Join(st.dir, "manifest.json"))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(raw, &m)
	return m, err
}

func (st *Store) writeManifest(m manifest) error {
	sort.Strings(m.Tools)
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(st.dir, "manifest.json"), raw, 0o644)
}

func (st *Store) addToManifest(name string) error {
	m, err := st.readManifest()
	if err != nil {
		return &LoadError{Unit: name, Err: err}
	}
	for _, t := range m.Tools {
		if t == name {
			return nil
		}
	}
	m.Tools = append(m.Tools, name)
	if err := st.writeManifest(m); err != nil {
		return &LoadError{Unit: name, Err: err}
	}
	return nil
}
