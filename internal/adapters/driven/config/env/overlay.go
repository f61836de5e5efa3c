// Package env layers environment variable overrides over a ConfigStore.
//
// A key such as "pool.timeout" is overridden by NORMRAG_POOL_TIMEOUT.
// Values from a .env file are loaded into the process environment first;
// variables already set in the environment take precedence over the file.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/normrag/internal/adapters/driven/config/convert"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Prefix is prepended to every override variable name.
const Prefix = "NORMRAG_"

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// LookupFunc resolves an environment variable.
type LookupFunc func(name string) (string, bool)

// Overlay reads overrides from the environment and falls through to the
// wrapped store. Writes always go to the wrapped store.
type Overlay struct {
	base   driven.ConfigStore
	lookup LookupFunc
}

// New wraps base with overrides from the process environment.
func New(base driven.ConfigStore) *Overlay {
	return NewWithLookup(base, os.LookupEnv)
}

// NewWithLookup wraps base with overrides resolved by lookup.
func NewWithLookup(base driven.ConfigStore, lookup LookupFunc) *Overlay {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Overlay{base: base, lookup: lookup}
}

// LoadDotEnv loads the given .env files into the environment.
// With no arguments it loads ./.env. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// VarName returns the override variable for a config key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

// Get returns the override for key if set, else the stored value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.lookup(VarName(key)); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	val, _ := o.Get(key)
	return convert.String(val)
}

// GetInt retrieves an integer configuration value.
func (o *Overlay) GetInt(key string) int {
	val, _ := o.Get(key)
	return convert.Int(val)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	val, _ := o.Get(key)
	return convert.Bool(val)
}

// GetFloat retrieves a floating point configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	val, _ := o.Get(key)
	return convert.Float(val)
}

// GetStringSlice retrieves a string slice. Overrides are comma-separated.
func (o *Overlay) GetStringSlice(key string) []string {
	val, _ := o.Get(key)
	return convert.StringSlice(val)
}

// Set stores a value in the wrapped store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the wrapped store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the wrapped store.
func (o *Overlay) Load() error {
	return o.base.Load()
}

// Path returns the wrapped store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
