package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// TreeStats holds the result of static analysis on a parsed module.
type TreeStats struct {
	Lines      int `json:"lines"`
	Functions  int `json:"functions"`
	Classes    int `json:"classes"`
	Names      int `json:"names"` // distinct Name identifiers
	Imports    int `json:"imports"`
	Strings    int `json:"strings"`
	Numbers    int `json:"numbers"`
	Docstrings int `json:"docstrings"`
	FStrings   int `json:"fstrings"`

	HasDynamicAccess bool `json:"has_dynamic_access"` // getattr, setattr, hasattr, delattr
	HasEval          bool `json:"has_eval"`           // eval, exec, compile
	HasNamespaceUse  bool `json:"has_namespace_use"`  // globals, locals, vars
	HasSlots         bool `json:"has_slots"`
	HasStarImport    bool `json:"has_star_import"`
	HasMatch         bool `json:"has_match"`

	Warnings []string `json:"warnings,omitempty"`
}

var (
	dynamicAccessFuncs = map[string]bool{"getattr": true, "setattr": true, "hasattr": true, "delattr": true}
	evalFuncs          = map[string]bool{"eval": true, "exec": true, "compile": true}
	namespaceFuncs     = map[string]bool{"globals": true, "locals": true, "vars": true}
)

// Analyze walks m and counts what the obfuscator will touch. The warnings
// name constructs whose behavior depends on identifier spelling.
func Analyze(m *pyast.Module) *TreeStats {
	st := &TreeStats{}
	names := make(map[string]struct{})
	last := 0
	pyast.Inspect(m, func(n pyast.Node) bool {
		if s, ok := n.(pyast.Stmt); ok {
			last = max(last, pyast.LineOf(s))
		}
		switch n := n.(type) {
		case *pyast.FunctionDef:
			st.Functions++
		case *pyast.ClassDef:
			st.Classes++
		case *pyast.Import:
			st.Imports += len(n.Names)
		case *pyast.ImportFrom:
			st.Imports += len(n.Names)
			for _, a := range n.Names {
				if a.Name == "*" {
					st.HasStarImport = true
				}
			}
		case *pyast.Match:
			st.HasMatch = true
		case *pyast.ExprStmt:
			if c, ok := n.Value.(*pyast.Constant); ok {
				if _, ok := c.Value.(pyast.Str); ok {
					st.Docstrings++
					return false
				}
			}
		case *pyast.JoinedStr:
			st.FStrings++
		case *pyast.Constant:
			switch n.Value.(type) {
			case pyast.Str:
				st.Strings++
			case pyast.Int, pyast.Float:
				st.Numbers++
			}
		case *pyast.Name:
			names[n.ID] = struct{}{}
			if n.ID == "__slots__" {
				st.HasSlots = true
			}
		case *pyast.Call:
			if fn, ok := n.Func.(*pyast.Name); ok {
				st.HasDynamicAccess = st.HasDynamicAccess || dynamicAccessFuncs[fn.ID]
				st.HasEval = st.HasEval || evalFuncs[fn.ID]
				st.HasNamespaceUse = st.HasNamespaceUse || namespaceFuncs[fn.ID]
			}
		}
		return true
	})
	st.Lines = last
	st.Names = len(names)
	st.computeWarnings()
	return st
}

func (st *TreeStats) computeWarnings() {
	if st.HasDynamicAccess {
		st.Warnings = append(st.Warnings, "getattr/setattr with string names will not follow renamed definitions")
	}
	if st.HasEval {
		st.Warnings = append(st.Warnings, "eval/exec source strings are not rewritten and may reference old names")
	}
	if st.HasNamespaceUse {
		st.Warnings = append(st.Warnings, "globals()/locals()/vars() lookups by name will miss renamed variables")
	}
	if st.HasSlots {
		st.Warnings = append(st.Warnings, "__slots__ entries are strings and will not match renamed attributes")
	}
	if st.HasStarImport {
		st.Warnings = append(st.Warnings, "star imports bind names the obfuscator cannot see; add them to ignore_names")
	}
}

// PrintAnalysis writes the analysis summary to w.
func PrintAnalysis(w io.Writer, st *TreeStats) {
	fmt.Fprintf(w, "\n%s\n", Bold("== Module Analysis =="))
	fmt.Fprintf(w, "  Lines: %-6d  Functions: %-4d  Classes: %-4d  Imports: %d\n",
		st.Lines, st.Functions, st.Classes, st.Imports)
	fmt.Fprintf(w, "  Names: %-6d  Strings: %-6d  Numbers: %-6d\n", st.Names, st.Strings, st.Numbers)
	fmt.Fprintf(w, "  Docstrings: %-3d  F-strings: %d\n", st.Docstrings, st.FStrings)

	var features []string
	if st.HasMatch {
		features = append(features, "match")
	}
	if st.HasDynamicAccess {
		features = append(features, "getattr")
	}
	if st.HasEval {
		features = append(features, "eval/exec")
	}
	if st.HasNamespaceUse {
		features = append(features, "globals/locals")
	}
	if st.HasSlots {
		features = append(features, "__slots__")
	}
	if st.HasStarImport {
		features = append(features, "star-import")
	}
	if len(features) > 0 {
		fmt.Fprintf(w, "  Features: %s\n", strings.Join(features, ", "))
	}
	if len(st.Warnings) > 0 {
		fmt.Fprintf(w, "%s\n", Yellow("== Warnings =="))
		for _, msg := range st.Warnings {
			fmt.Fprintf(w, "  %s %s\n", Yellow("!"), msg)
		}
	}
	fmt.Fprintln(w)
}
