/*
Package config implements the hierarchical configuration of manifests.

Configuration is read from YAML files in three layers, each overriding the
previous one:

	built-in defaults
	global:   $XDG_CONFIG_HOME/manifest/config.yaml (or ~/.config/manifest/config.yaml)
	per-file: <document>.config

Keys may be addressed in dot-notation, e.g. "sidecar.corruption_handling".

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/manifest/store"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer traces with key 'manifest.config'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.config")
}

// ErrInvalid is returned for configurations which do not validate.
var ErrInvalid = errors.New("invalid configuration")

// ErrUnknownKey is returned for dot-notation keys which do not exist.
var ErrUnknownKey = errors.New("unknown configuration key")

// Corruption handling policies.
const (
	Silent         = "silent"
	WarnAndProceed = "warn_and_proceed"
	WarnAndAsk     = "warn_and_ask"
)

// Index backends.
const (
	BackendJSON   = "json"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Sidecar configures the identifier index.
type Sidecar struct {
	Enabled            bool   `yaml:"enabled"`
	CorruptionHandling string `yaml:"corruption_handling" validate:"oneof=silent warn_and_proceed warn_and_ask"`
	AutoRebuild        bool   `yaml:"auto_rebuild"`
	Backend            string `yaml:"backend" validate:"oneof=json badger memory"`
}

// IDs configures automatic identifiers.
type IDs struct {
	Enabled   bool `yaml:"enabled"`
	Length    int  `yaml:"length" validate:"min=4,max=32"`
	PrefixMin int  `yaml:"prefix_min" validate:"min=1"`
	PrefixMax int  `yaml:"prefix_max" validate:"gtefield=PrefixMin,max=32"`
}

// Merge configures imports.
type Merge struct {
	Policy string `yaml:"policy" validate:"oneof=fail remap"`
}

// Display configures the output of the command line interface.
type Display struct {
	ShowIDs bool `yaml:"show_ids"`
}

// Config is the complete configuration of a session.
type Config struct {
	Sidecar   Sidecar  `yaml:"sidecar"`
	IDs       IDs      `yaml:"ids"`
	Merge     Merge    `yaml:"merge"`
	Display   Display  `yaml:"display"`
	Shortcuts []string `yaml:"shortcuts" validate:"dive,required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sidecar: Sidecar{
			Enabled:            true,
			CorruptionHandling: WarnAndAsk,
			Backend:            BackendJSON,
		},
		IDs: IDs{
			Enabled:   true,
			Length:    8,
			PrefixMin: 3,
			PrefixMax: 8,
		},
		Merge:     Merge{Policy: "fail"},
		Display:   Display{ShowIDs: true},
		Shortcuts: []string{"task", "project", "note", "location"},
	}
}

var validate = validator.New()

// Validate checks the values of a configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails constraint %q (value %v)", ErrInvalid,
				fe.Namespace(), fe.ActualTag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// StoreOptions resolves the settings relevant for a document store.
func (c Config) StoreOptions() store.Options {
	policy, err := store.ParseMergePolicy(c.Merge.Policy)
	if err != nil {
		tracer().Errorf("%v, falling back to %s", err, policy)
	}
	return store.Options{
		AutoID:       c.IDs.Enabled,
		IDLength:     c.IDs.Length,
		IndexEnabled: c.Sidecar.Enabled,
		PrefixMin:    c.IDs.PrefixMin,
		PrefixMax:    c.IDs.PrefixMax,
		MergePolicy:  policy,
	}
}

// IsShortcut is true if tag is configured as a command shortcut.
func (c Config) IsShortcut(tag string) bool {
	for _, s := range c.Shortcuts {
		if s == tag {
			return true
		}
	}
	return false
}

// --- Loading ---------------------------------------------------------------

// GlobalPath returns the location of the global configuration file.
func GlobalPath() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("APPDATA")
		if base == "" {
			base, _ = os.UserHomeDir()
		}
		return filepath.Join(base, "manifest", "config.yaml")
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "manifest", "config.yaml")
}

// PathFor returns the location of the per-file configuration of a document.
func PathFor(docPath string) string {
	return docPath + ".config"
}

// Load reads the configuration for a document. Missing files are skipped.
// If docPath is empty, only the global configuration is considered.
func Load(docPath string) (Config, error) {
	paths := []string{GlobalPath()}
	if docPath != "" {
		paths = append(paths, PathFor(docPath))
	}
	return LoadFiles(paths...)
}

// LoadFiles starts with the defaults and merges the given files in order.
// Missing files are skipped. A file only needs to contain the keys it
// overrides.
func LoadFiles(paths ...string) (Config, error) {
	c := Default()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return c, fmt.Errorf("reading configuration: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		tracer().Debugf("configuration loaded from %s", path)
	}
	return c, c.Validate()
}

// Save writes the configuration to a YAML file, creating its directory if
// necessary.
func (c Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// --- Dot-notation access ---------------------------------------------------

func (c Config) tree() (map[string]interface{}, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	err = yaml.Unmarshal(data, &m)
	return m, err
}

// Get returns the value of a key in dot-notation, e.g. "ids.length".
// Sections are returned as maps.
func (c Config) Get(key string) (interface{}, error) {
	var v interface{}
	m, err := c.tree()
	if err != nil {
		return nil, err
	}
	v = m
	for _, k := range strings.Split(key, ".") {
		section, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if v, ok = section[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	return v, nil
}

// Set changes the value of a key in dot-notation. The value is interpreted
// as a YAML scalar (or flow sequence), so "true" sets a boolean and "8"
// a number. The resulting configuration has to be valid.
func (c *Config) Set(key, value string) error {
	m, err := c.tree()
	if err != nil {
		return err
	}
	keys := strings.Split(key, ".")
	section := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := section[k].(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		section = next
	}
	last := keys[len(keys)-1]
	if _, ok := section[last]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var v interface{}
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	section[last] = v
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	updated := Default()
	updated.Shortcuts = nil
	if err := yaml.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*c = updated
	return nil
}
