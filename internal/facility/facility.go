// Package facility holds the versioned location layouts of the hostel:
// which named locations are outside the perimeter and where each one is
// drawn on the facility map.
package facility

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/thirdeye/internal/models"
)

const DefaultRevision = "campus-lake"

//go:embed layouts.yaml
var builtinLayouts []byte

// Point is a map position in percent of the map's width and height.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Revision is one layout as written in the facility file.
type Revision struct {
	Outdoor   []string         `yaml:"outdoor"`
	Positions map[string]Point `yaml:"positions"`
}

// File is the root of the facility YAML document.
type File struct {
	Revisions map[string]Revision `yaml:"revisions"`
}

// Catalog is a resolved revision ready for lookups.
type Catalog struct {
	name      string
	outdoor   map[string]struct{}
	positions map[string]Point
}

// LoadFile reads and parses a facility YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading facility file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error decoding facility file: %w", err)
	}
	if len(f.Revisions) == 0 {
		return nil, fmt.Errorf("facility file defines no revisions")
	}
	return &f, nil
}

// Names lists the revision names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Revisions))
	for name := range f.Revisions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog resolves the named revision.
func (f *File) Catalog(name string) (*Catalog, error) {
	rev, ok := f.Revisions[name]
	if !ok {
		return nil, fmt.Errorf("unknown facility revision %q (have %s)", name, strings.Join(f.Names(), ", "))
	}
	return NewCatalog(name, rev)
}

func NewCatalog(name string, rev Revision) (*Catalog, error) {
	c := &Catalog{
		name:      name,
		outdoor:   make(map[string]struct{}, len(rev.Outdoor)),
		positions: make(map[string]Point, len(rev.Positions)),
	}
	for _, loc := range rev.Outdoor {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			return nil, fmt.Errorf("revision %q: empty outdoor location", name)
		}
		c.outdoor[loc] = struct{}{}
	}
	for loc, p := range rev.Positions {
		if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
			return nil, fmt.Errorf("revision %q: position of %q out of range", name, loc)
		}
		c.positions[loc] = p
	}
	return c, nil
}

// Builtin returns the layouts compiled into the binary. A fresh copy is
// parsed on each call so callers cannot share mutations.
func Builtin() *File {
	f, err := Parse(builtinLayouts)
	if err != nil {
		panic(fmt.Sprintf("facility: built-in layouts: %v", err))
	}
	return f
}

// Default is the built-in campus-lake layout.
func Default() *Catalog {
	c, err := Builtin().Catalog(DefaultRevision)
	if err != nil {
		panic(fmt.Sprintf("facility: built-in layouts: %v", err))
	}
	return c
}

func (c *Catalog) Name() string {
	return c.name
}

// LocationType reports outside for locations in the outdoor set and within
// for everything else, including unknown names.
func (c *Catalog) LocationType(location string) models.LocationType {
	if _, ok := c.outdoor[location]; ok {
		return models.LocationOutside
	}
	return models.LocationWithin
}

func (c *Catalog) Position(location string) (Point, bool) {
	p, ok := c.positions[location]
	return p, ok
}

// Outdoor returns the outdoor locations sorted by name.
func (c *Catalog) Outdoor() []string {
	out := make([]string, 0, len(c.outdoor))
	for loc := range c.outdoor {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// Locations returns every location the revision knows, sorted by name.
func (c *Catalog) Locations() []string {
	seen := make(map[string]struct{}, len(c.positions)+len(c.outdoor))
	for loc := range c.positions {
		seen[loc] = struct{}{}
	}
	for loc := range c.outdoor {
		seen[loc] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
