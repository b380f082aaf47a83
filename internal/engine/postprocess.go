package engine

import "github.com/benzoXdev/obfuspy/pkg/pyast"

const dynamicImportFunc = "__import__"

// dynamicImportTarget returns the bound name of `name = __import__(...)`,
// or "" when a is any other assignment.
func dynamicImportTarget(a *pyast.Assign) string {
	if len(a.Targets) != 1 {
		return ""
	}
	target, ok := a.Targets[0].(*pyast.Name)
	if !ok {
		return ""
	}
	call, ok := a.Value.(*pyast.Call)
	if !ok {
		return ""
	}
	if fn, ok := call.Func.(*pyast.Name); !ok || fn.ID != dynamicImportFunc {
		return ""
	}
	return target.ID
}

func isImportStmt(s pyast.Stmt) bool {
	switch s := s.(type) {
	case *pyast.Import, *pyast.ImportFrom:
		return true
	case *pyast.Assign:
		return dynamicImportTarget(s) != ""
	}
	return false
}

// HoistImports moves every top-level import statement ahead of all other
// top-level statements, keeping the relative order within both groups.
func HoistImports(m *pyast.Module) {
	imports := make([]pyast.Stmt, 0, len(m.Body))
	var rest []pyast.Stmt
	for _, s := range m.Body {
		if isImportStmt(s) {
			imports = append(imports, s)
		} else {
			rest = append(rest, s)
		}
	}
	m.Body = append(imports, rest...)
}

// Finalize prepares a rewritten tree for printing.
func Finalize(m *pyast.Module) {
	HoistImports(m)
	pyast.FixLocations(m)
}
