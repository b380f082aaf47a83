package engine

import (
	mathrand "math/rand"
	"strings"

	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Identifier lengths drawn for renamed names.
const (
	identMinLen = 4
	identMaxLen = 10
)

// maxIdentAttempts bounds re-sampling of a single replacement name.
const maxIdentAttempts = 1000

// RenameMap is an insertion-ordered, injective mapping from original names to
// their replacements. It is read-only once returned by Collect.
type RenameMap struct {
	m     map[string]string
	order []string
	used  map[string]struct{}
}

func newRenameMap() *RenameMap {
	return &RenameMap{m: make(map[string]string), used: make(map[string]struct{})}
}

func (rm *RenameMap) add(name, repl string) {
	rm.m[name] = repl
	rm.order = append(rm.order, name)
	rm.used[repl] = struct{}{}
}

func (rm *RenameMap) hasValue(s string) bool {
	_, ok := rm.used[s]
	return ok
}

// Lookup returns the replacement for name, if any.
func (rm *RenameMap) Lookup(name string) (string, bool) {
	if rm == nil {
		return "", false
	}
	s, ok := rm.m[name]
	return s, ok
}

// Rename returns the replacement for name, or name itself.
func (rm *RenameMap) Rename(name string) string {
	if s, ok := rm.Lookup(name); ok {
		return s
	}
	return name
}

// Len returns the number of renamed names.
func (rm *RenameMap) Len() int {
	if rm == nil {
		return 0
	}
	return len(rm.order)
}

// Keys returns the original names in admission order.
func (rm *RenameMap) Keys() []string {
	if rm == nil {
		return nil
	}
	return append([]string(nil), rm.order...)
}

// Each calls f for every entry in admission order.
func (rm *RenameMap) Each(f func(name, repl string)) {
	if rm == nil {
		return
	}
	for _, k := range rm.order {
		f(k, rm.m[k])
	}
}

// ImportSet holds the local names bound by import statements.
type ImportSet map[string]struct{}

func (s ImportSet) add(name string) {
	if name != "" {
		s[name] = struct{}{}
	}
}

// Has reports whether name is bound by an import.
func (s ImportSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Collector computes the rename map of a tree.
type Collector struct {
	r      *mathrand.Rand
	ignore IgnoreSet
}

// NewCollector returns a Collector drawing names from r and never renaming
// names in ignore.
func NewCollector(r *mathrand.Rand, ignore IgnoreSet) *Collector {
	return &Collector{r: r, ignore: ignore}
}

// candidates is the gather phase result.
type candidates struct {
	names   []string
	seen    map[string]bool
	taken   map[string]bool
	imports ImportSet
}

func (c *candidates) candidate(name string) {
	c.taken[name] = true
	if !c.seen[name] {
		c.seen[name] = true
		c.names = append(c.names, name)
	}
}

func (c *candidates) take(names ...string) {
	for _, n := range names {
		if n != "" {
			c.taken[n] = true
		}
	}
}

// Collect walks m and returns its rename map and import bindings.
func (c *Collector) Collect(m *pyast.Module) (*RenameMap, ImportSet, error) {
	g := gather(m)
	rm := newRenameMap()
	for _, name := range g.names {
		if c.ignore.Has(name) || g.imports.Has(name) {
			continue
		}
		if _, ok := rm.Lookup(name); ok {
			continue
		}
		repl, err := c.fresh(rm, g)
		if err != nil {
			return nil, nil, err
		}
		rm.add(name, repl)
	}
	return rm, g.imports, nil
}

func (c *Collector) fresh(rm *RenameMap, g *candidates) (string, error) {
	for range maxIdentAttempts {
		s := RandIdent(c.r, identMinLen, identMaxLen)
		if rm.hasValue(s) || g.taken[s] || c.ignore.Has(s) || g.imports.Has(s) || isKeyword(s) {
			continue
		}
		return s, nil
	}
	return "", errors.New(errors.ErrCodeIdentifierExhaustion,
		"no unused identifier found after %d attempts (%d names renamed)", maxIdentAttempts, rm.Len())
}

// gather records candidate names in first-appearance order, the import
// bindings, and every identifier spelled anywhere in the tree.
func gather(m *pyast.Module) *candidates {
	g := &candidates{seen: map[string]bool{}, taken: map[string]bool{}, imports: ImportSet{}}
	pyast.Inspect(m, func(n pyast.Node) bool {
		switch n := n.(type) {
		case *pyast.Name:
			g.candidate(n.ID)
		case *pyast.FunctionDef:
			if strings.HasPrefix(n.Name, "__") {
				g.take(n.Name)
			} else {
				g.candidate(n.Name)
			}
		case *pyast.ClassDef:
			g.candidate(n.Name)
		case *pyast.Import:
			for _, a := range n.Names {
				g.imports.add(importBinding(a))
				g.take(a.AsName)
				g.take(strings.Split(a.Name, ".")...)
			}
		case *pyast.ImportFrom:
			g.take(strings.Split(n.Module, ".")...)
			for _, a := range n.Names {
				if a.Name == "*" {
					continue
				}
				g.imports.add(importBinding(a))
				g.take(a.Name, a.AsName)
			}
		case *pyast.Assign:
			if name := dynamicImportTarget(n); name != "" {
				g.imports.add(name)
			}
		case *pyast.Attribute:
			g.take(n.Attr)
		case *pyast.Arg:
			g.take(n.Name)
		case *pyast.Keyword:
			g.take(n.Arg)
		case *pyast.Global:
			g.take(n.Names...)
		case *pyast.Nonlocal:
			g.take(n.Names...)
		case *pyast.ExceptHandler:
			g.take(n.Name)
		case *pyast.MatchAs:
			g.take(n.Name)
		case *pyast.MatchStar:
			g.take(n.Name)
		case *pyast.MatchMapping:
			g.take(n.Rest)
		case *pyast.MatchClass:
			g.take(n.KwdAttrs...)
		case *pyast.TypeVar:
			g.take(n.Name)
		case *pyast.ParamSpec:
			g.take(n.Name)
		case *pyast.TypeVarTuple:
			g.take(n.Name)
		}
		return true
	})
	return g
}

// importBinding is the local name an import alias binds: the alias if
// present, else the first component of a dotted module.
func importBinding(a *pyast.Alias) string {
	if a.AsName != "" {
		return a.AsName
	}
	name, _, _ := strings.Cut(a.Name, ".")
	return name
}
