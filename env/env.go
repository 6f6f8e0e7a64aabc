// Package env resolves the stage environment file (env/.env.<stage>) and
// exposes it, layered under the process environment, as an immutable
// snapshot. Nothing in this package writes to the process environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

// DefaultStage is used when STAGE is unset or empty.
const DefaultStage = "prd"

// StageKey is the variable that selects the environment file.
const StageKey = "STAGE"

// ErrInvalidStage is returned for stage names that would escape env/.
var ErrInvalidStage = errors.New("env: invalid stage name")

// LookupFunc reads a single variable from the process environment.
type LookupFunc func(key string) (string, bool)

// Environment is a read-only view over the process environment and the
// values parsed from the stage file. Process variables win, the way dotenv
// never overrides a variable that is already set.
type Environment struct {
	stage  string
	path   string
	loaded bool
	file   map[string]string
	lookup LookupFunc
}

type options struct {
	root   string
	stage  string
	lookup LookupFunc
}

// Option configures Load.
type Option func(*options)

// WithRoot sets the project directory that contains env/. Default ".".
func WithRoot(dir string) Option {
	return func(o *options) { o.root = dir }
}

// WithStage forces a stage, ignoring STAGE.
func WithStage(stage string) Option {
	return func(o *options) { o.stage = stage }
}

// WithLookup replaces os.LookupEnv as the process environment source.
func WithLookup(fn LookupFunc) Option {
	return func(o *options) { o.lookup = fn }
}

// FilePath returns the environment file for stage under root.
func FilePath(root, stage string) string {
	return filepath.Join(root, "env", ".env."+stage)
}

// Load resolves the stage and reads its environment file if it exists.
// A missing file is not an error.
func Load(opts ...Option) (*Environment, error) {
	o := options{root: ".", lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	stage := strings.TrimSpace(o.stage)
	if stage == "" {
		if v, ok := o.lookup(StageKey); ok {
			stage = strings.TrimSpace(v)
		}
	}
	if stage == "" {
		stage = DefaultStage
	}
	if err := validateStage(stage); err != nil {
		return nil, err
	}

	e := &Environment{
		stage:  stage,
		path:   FilePath(o.root, stage),
		file:   map[string]string{},
		lookup: o.lookup,
	}

	f, err := os.Open(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return e, nil
		}
		return nil, fmt.Errorf("env: open %s: %w", e.path, err)
	}
	defer f.Close()

	parsed, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("env: parse %s: %w", e.path, err)
	}
	for k, v := range parsed {
		e.file[k] = v
	}
	e.loaded = true
	return e, nil
}

// FromMap builds an Environment with no process layer. Used by tests and
// by callers that already hold resolved values.
func FromMap(stage string, values map[string]string) *Environment {
	file := make(map[string]string, len(values))
	for k, v := range values {
		file[k] = v
	}
	return &Environment{
		stage:  stage,
		file:   file,
		loaded: true,
		lookup: func(string) (string, bool) { return "", false },
	}
}

func validateStage(stage string) error {
	if strings.ContainsAny(stage, `/\`) || strings.Contains(stage, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	return nil
}

// Stage returns the resolved stage name.
func (e *Environment) Stage() string { return e.stage }

// Path returns the environment file path that was resolved.
func (e *Environment) Path() string { return e.path }

// Loaded reports whether the environment file existed and was read.
func (e *Environment) Loaded() bool { return e.loaded }

// Lookup returns the value for key and whether it was set anywhere.
func (e *Environment) Lookup(key string) (string, bool) {
	if v, ok := e.lookup(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

// Get returns the trimmed value for key, or "" when unset.
func (e *Environment) Get(key string) string {
	v, _ := e.Lookup(key)
	return strings.TrimSpace(v)
}

// Or returns the value for key, or fallback if it is unset or blank.
func (e *Environment) Or(key, fallback string) string {
	if v := e.Get(key); v != "" {
		return v
	}
	return fallback
}

// Int parses key as a base-10 integer, returning fallback on any failure.
func (e *Environment) Int(key string, fallback int) int {
	v := e.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Bool accepts the usual spellings (1/true/yes/on and 0/false/no/off).
func (e *Environment) Bool(key string, fallback bool) bool {
	switch strings.ToLower(e.Get(key)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

// Duration parses key with time.ParseDuration, returning fallback on failure.
func (e *Environment) Duration(key string, fallback time.Duration) time.Duration {
	v := e.Get(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Keys returns the sorted keys defined by the environment file.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.file))
	for k := range e.file {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
