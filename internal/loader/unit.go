// Package loader discovers content units and builds the actor registry from them.
// Units come from two places: Go code registering itself at init time, and
// YAML files in a content directory.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jwebster45206/defcon/pkg/actor"
)

// Unit produces one actor.
type Unit interface {
	Describe() (*actor.Actor, error)
}

// UnitFunc adapts a function to Unit.
type UnitFunc func() (*actor.Actor, error)

func (f UnitFunc) Describe() (*actor.Actor, error) { return f() }

// NamedUnit pairs a unit with the name used in logs and errors.
type NamedUnit struct {
	Name string
	Unit Unit
}

var (
	registryMu sync.Mutex
	registry   []NamedUnit
)

// Register makes a unit available to Registered. It panics when called twice
// with the same name or with a nil unit.
func Register(name string, u Unit) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if u == nil {
		panic("loader: Register unit is nil")
	}
	for _, nu := range registry {
		if nu.Name == name {
			panic("loader: Register called twice for unit " + name)
		}
	}
	registry = append(registry, NamedUnit{Name: name, Unit: u})
}

// Registered returns the statically registered units sorted by name.
func Registered() []NamedUnit {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b NamedUnit) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// FileUnit describes an actor from a YAML file.
type FileUnit struct {
	Path string
}

func (u FileUnit) Describe() (*actor.Actor, error) {
	def, err := DecodeFile(u.Path)
	if err != nil {
		return nil, err
	}
	return def.Build()
}

// DirUnits returns one unit per .yaml or .yml file under dir, in path order.
func DirUnits(dir string) ([]NamedUnit, error) {
	var units []NamedUnit
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		name, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			name = path
		}
		units = append(units, NamedUnit{Name: filepath.ToSlash(name), Unit: FileUnit{Path: path}})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to list content directory: %w", err)
	}
	return units, nil
}

// Discover returns the registered units followed by the units found in dir.
// An empty dir means registered units only. The registered units are still
// returned when dir cannot be read.
func Discover(dir string) ([]NamedUnit, error) {
	units := Registered()
	if dir == "" {
		return units, nil
	}
	fromDir, err := DirUnits(dir)
	if err != nil {
		return units, err
	}
	return append(units, fromDir...), nil
}
