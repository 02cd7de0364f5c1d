// Package typetest type-checks small in-memory packages for tests. It keeps
// scanner and generator tests hermetic: fixtures are plain source strings,
// checked with go/types directly, with no go command and no module
// resolution involved.
package typetest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/querycheck/querycheck/internal/canon"
	"github.com/querycheck/querycheck/internal/scan"
)

// Env checks fixture packages in dependency order and serves them back as
// imports to later fixtures. It implements types.Importer.
type Env struct {
	Fset *token.FileSet
	pkgs map[string]*types.Package
}

// NewEnv returns an empty environment with a fresh file set.
func NewEnv() *Env {
	return &Env{
		Fset: token.NewFileSet(),
		pkgs: make(map[string]*types.Package),
	}
}

// Check parses and type-checks src as the package at path, registers it for
// import by later fixtures, and returns it. Any parse or check failure is
// fatal for the test.
func (e *Env) Check(t *testing.T, path, src string) *types.Package {
	t.Helper()
	file, err := parser.ParseFile(e.Fset, fileName(path), src, 0)
	if err != nil {
		t.Fatalf("parse fixture %s: %v", path, err)
	}
	conf := types.Config{Importer: e}
	pkg, err := conf.Check(path, e.Fset, []*ast.File{file}, nil)
	if err != nil {
		t.Fatalf("type-check fixture %s: %v", path, err)
	}
	e.pkgs[path] = pkg
	return pkg
}

// CheckShapes registers stand-ins for the query and check packages under
// their real import paths. Shape matching is by path and name, so fixtures
// that import these behave exactly like code importing the real thing.
func (e *Env) CheckShapes(t *testing.T) {
	t.Helper()
	e.Check(t, scan.QueryPath, querySrc)
	e.Check(t, canon.CheckPath, checkSrc)
}

// Pkg returns a previously checked package, or nil.
func (e *Env) Pkg(path string) *types.Package {
	return e.pkgs[path]
}

// Import implements types.Importer over the checked fixtures.
func (e *Env) Import(path string) (*types.Package, error) {
	if pkg, ok := e.pkgs[path]; ok {
		return pkg, nil
	}
	return nil, fmt.Errorf("typetest: package %q not checked", path)
}

func fileName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return path + ".go"
}

// Minimal structural stand-ins. Only the declared names and type parameters
// matter; runtime behavior lives in the real packages.
const querySrc = `package query

type Read[E any] struct {
	SQL  string
	Args []any
}

type Exec struct {
	SQL  string
	Args []any
}

type ExecOf[E any] struct {
	SQL string
}

func (m ExecOf[E]) Bind(v E) Exec { return Exec{SQL: m.SQL} }

func Zero[T any]() T {
	var z T
	return z
}
`

const checkSrc = `package check

type Capability[T any] struct {
	Kind string
}
`
