// Package canon resolves canonical argument values and verification
// capabilities by exact type identity.
//
// Providers are ordinary packages whose exported package-level vars become
// the canonical values. Exactly one value may exist per distinct type;
// resolution never falls back to assignability, conversions, or underlying
// types. A capability for values of type T is simply the canonical value of
// type check.Capability[T].
package canon

import (
	"errors"
	"fmt"
	"go/types"
)

// CheckPath is the import path of the capability package.
const CheckPath = "github.com/querycheck/querycheck/pkg/check"

const capabilityName = "Capability"

// Ref names an exported package-level var that generated code can
// reference.
type Ref struct {
	PkgPath string
	PkgName string
	Name    string
}

func (r Ref) String() string {
	return r.PkgName + "." + r.Name
}

type entry struct {
	typ types.Type
	ref Ref
}

// Registry is a build-scoped, type-keyed store of canonical values. It is
// populated once from provider packages and read-only afterwards.
type Registry struct {
	entries   []entry
	capOrigin *types.Named
}

// New builds a registry from the exported package-level vars of the given
// provider packages. Two vars of identical type are a configuration error,
// whether they sit in one provider or across several.
func New(providers ...*types.Package) (*Registry, error) {
	r := &Registry{}
	for _, pkg := range providers {
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			v, ok := scope.Lookup(name).(*types.Var)
			if !ok || !v.Exported() {
				continue
			}
			ref := Ref{PkgPath: pkg.Path(), PkgName: pkg.Name(), Name: name}
			if err := r.Add(v.Type(), ref); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Add registers a single canonical value.
func (r *Registry) Add(t types.Type, ref Ref) error {
	for _, e := range r.entries {
		if types.Identical(e.typ, t) {
			return fmt.Errorf("canon: %s and %s both provide type %s, want exactly one canonical value",
				e.ref, ref, types.TypeString(t, nil))
		}
	}
	r.entries = append(r.entries, entry{typ: t, ref: ref})
	r.noteCapability(t)
	return nil
}

// Len reports the number of registered values.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Resolve returns the canonical value for exactly t. The owner names the
// member whose parameter required the value and is carried into the error.
func (r *Registry) Resolve(t types.Type, owner string) (Ref, error) {
	for _, e := range r.entries {
		if types.Identical(e.typ, t) {
			return e.ref, nil
		}
	}
	return Ref{}, &MissingDependencyError{Type: types.TypeString(t, nil), Member: owner}
}

// Capability resolves the capability paired with values of type t, the
// canonical value of type check.Capability[t]. The capability generic is
// remembered from the first registered capability value; without one every
// lookup misses.
func (r *Registry) Capability(t types.Type, owner string) (Ref, error) {
	want := capabilityName + "[" + types.TypeString(t, nil) + "]"
	if r.capOrigin == nil {
		return Ref{}, &MissingDependencyError{Type: want, Member: owner, Capability: true}
	}
	inst, err := types.Instantiate(types.NewContext(), r.capOrigin, []types.Type{t}, false)
	if err != nil {
		return Ref{}, fmt.Errorf("canon: instantiating %s: %w", want, err)
	}
	ref, err := r.Resolve(inst, owner)
	if err != nil {
		var miss *MissingDependencyError
		if errors.As(err, &miss) {
			miss.Capability = true
		}
		return Ref{}, err
	}
	return ref, nil
}

func (r *Registry) noteCapability(t types.Type) {
	if r.capOrigin != nil {
		return
	}
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return
	}
	obj := named.Obj()
	if obj.Pkg() != nil && obj.Pkg().Path() == CheckPath && obj.Name() == capabilityName {
		r.capOrigin = named.Origin()
	}
}

// MissingDependencyError reports a type with no registered canonical value,
// together with the member that required it.
type MissingDependencyError struct {
	Type       string
	Member     string
	Capability bool
}

func (e *MissingDependencyError) Error() string {
	what := "parameter"
	if e.Capability {
		what = "capability"
	}
	return fmt.Sprintf("canon: no canonical value for %s type %s, required by %s", what, e.Type, e.Member)
}
