// Package discovery supplies view declarations from TOML or YAML files.
//
// A declaration file lists views in order:
//
//	[[view]]
//	id = "home"
//	default = true
//	accessible = true
//	title = "Home"
//
//	[[view]]
//	id = "detail"
//	namespace = "shop"
//	fallback = "home@default"
//	group = "details"
//
// accessible is true, false or omitted to inherit the global setting.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Entry is one view as written in a declaration file.
type Entry struct {
	ID         string `toml:"id" yaml:"id"`
	Namespace  string `toml:"namespace" yaml:"namespace"`
	Default    bool   `toml:"default" yaml:"default"`
	Accessible Flag   `toml:"accessible" yaml:"accessible"`
	Fallback   string `toml:"fallback" yaml:"fallback"`
	Group      string `toml:"group" yaml:"group"`
	Title      string `toml:"title" yaml:"title"`
}

// Declaration converts the entry.
func (e Entry) Declaration() view.Declaration {
	return view.Declaration{
		ID:         strings.TrimSpace(e.ID),
		Namespace:  strings.TrimSpace(e.Namespace),
		Default:    e.Default,
		Accessible: view.ParseAccessibility(string(e.Accessible)),
		Fallback:   strings.TrimSpace(e.Fallback),
		Group:      strings.TrimSpace(e.Group),
		Title:      e.Title,
	}
}

// Flag is a tri-state value written either as a boolean or as a string.
type Flag string

// UnmarshalTOML implements toml.Unmarshaler.
func (f *Flag) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case bool:
		*f = Flag(strconv.FormatBool(x))
	case string:
		*f = Flag(x)
	default:
		return fmt.Errorf("discovery: accessible must be a boolean or string, got %T", v)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("discovery: accessible must be a scalar (line %d)", n.Line)
	}
	*f = Flag(n.Value)
	return nil
}

type file struct {
	Views []Entry `toml:"view" yaml:"views"`
}

// Catalog is a view.Source fed by declaration files and by Add.
// The first declaration of a key wins; later duplicates are ignored.
// Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	decls []view.Declaration
	index map[view.Key]int
}

// NewCatalog creates a catalog holding decls.
func NewCatalog(decls ...view.Declaration) *Catalog {
	c := &Catalog{index: make(map[view.Key]int)}
	c.Add(decls...)
	return c
}

// Add declares views. Declarations added after the registry was initialized
// are picked up the first time they are referenced.
func (c *Catalog) Add(decls ...view.Declaration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range decls {
		if d.ID == "" {
			internal.GetInternalLogger().Warn("ignoring view declaration without id")
			continue
		}
		k := d.Key()
		if _, ok := c.index[k]; ok {
			internal.GetInternalLogger().Warn("ignoring duplicate view declaration", "view", k.String())
			continue
		}
		c.index[k] = len(c.decls)
		c.decls = append(c.decls, d)
	}
}

// Declarations returns every declaration in declaration order.
func (c *Catalog) Declarations() []view.Declaration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]view.Declaration, len(c.decls))
	copy(out, c.decls)
	return out
}

// Lookup returns the declaration of key.
func (c *Catalog) Lookup(key view.Key) (view.Declaration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return view.Declaration{}, false
	}
	return c.decls[i], true
}

// Len returns the number of declarations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.decls)
}

// LoadTOML adds the views of a TOML document.
func (c *Catalog) LoadTOML(r io.Reader) error {
	var f file
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("discovery: decode toml: %w", err)
	}
	c.addEntries(f.Views)
	return nil
}

// LoadYAML adds the views of a YAML document with a top-level views list.
func (c *Catalog) LoadYAML(r io.Reader) error {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("discovery: decode yaml: %w", err)
	}
	c.addEntries(f.Views)
	return nil
}

// LoadFile adds the views of path, picking the format from its extension.
func (c *Catalog) LoadFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	defer fh.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = c.LoadTOML(fh)
	case ".yaml", ".yml":
		err = c.LoadYAML(fh)
	default:
		return fmt.Errorf("discovery: unsupported declaration file %q", path)
	}
	if err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// Load creates a catalog from files, in order.
func Load(paths ...string) (*Catalog, error) {
	c := NewCatalog()
	for _, p := range paths {
		if err := c.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) addEntries(entries []Entry) {
	decls := make([]view.Declaration, 0, len(entries))
	for _, e := range entries {
		decls = append(decls, e.Declaration())
	}
	c.Add(decls...)
}
