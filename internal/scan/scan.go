// Package scan discovers the checkable members of a data-access module.
//
// A module is a defined struct type in some package. Its members are the
// exported methods declared on the type plus the exported fields of the
// struct. Each callable member's type is unwound through single-result
// func layers into parameter-type groups and a final result type, which
// classify.go then matches against the recognized query shapes.
package scan

import (
	"go/token"
	"go/types"
	"sort"
	"strings"
)

// Ref identifies a module to scan: the import path of the package holding
// the type, and the type's name. The name may carry "*" or "[...]"
// decoration, which resolution strips.
type Ref struct {
	PkgPath  string
	TypeName string
}

func (r Ref) String() string {
	return r.PkgPath + "." + StripDecoration(r.TypeName)
}

// Module is a resolved module reference.
type Module struct {
	// Name is the bare declared name of the module type.
	Name string
	// Pkg is the package that declares the type. When the reference named
	// an alias, this is the target type's package.
	Pkg *types.Package
	// Type is the defined module type.
	Type *types.Named
	// Instance is the first exported package-level var of the module type,
	// nil when there is none.
	Instance *types.Var
	// InstanceCount is the number of exported package-level vars of the
	// module type, counting both T and *T declarations.
	InstanceCount int
}

// Singleton reports whether exactly one canonical instance var exists.
func (m *Module) Singleton() bool {
	return m.InstanceCount == 1
}

// MemberKind distinguishes value members from callable ones.
type MemberKind int

const (
	ValueMember MemberKind = iota
	CallableMember
)

func (k MemberKind) String() string {
	if k == ValueMember {
		return "value"
	}
	return "callable"
}

// Param is one declared parameter inside a parameter group.
type Param struct {
	Name     string
	Type     types.Type
	Variadic bool
}

// Member is one exposed module member, captured with its full structure:
// the parameter-type groups in application order and the final result type
// after unwinding. Value members have no groups.
type Member struct {
	RawName         string
	Kind            MemberKind
	Groups          [][]Param
	Result          types.Type
	PointerReceiver bool

	pos token.Position
}

// Pos reports where the member is declared.
func (m Member) Pos() token.Position {
	return m.pos
}

// StripDecoration reduces a type reference to its bare name: "*Queries"
// and "Queries[Row]" both resolve as "Queries".
func StripDecoration(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

// Resolve looks a module type up in pkg and validates its shape. The
// reference must denote a defined, non-generic struct type; an alias to one
// is followed to its target.
func Resolve(pkg *types.Package, typeName string) (*Module, error) {
	name := StripDecoration(typeName)
	obj := pkg.Scope().Lookup(name)
	if obj == nil {
		return nil, &InputShapeError{Pkg: pkg.Path(), Type: name, Reason: "no such declaration"}
	}
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, &InputShapeError{Pkg: pkg.Path(), Type: name, Reason: "declaration is not a type"}
	}
	named, ok := types.Unalias(tn.Type()).(*types.Named)
	if !ok {
		return nil, &InputShapeError{Pkg: pkg.Path(), Type: name, Reason: "not a defined type"}
	}
	if named.TypeParams().Len() > 0 {
		return nil, &InputShapeError{Pkg: pkg.Path(), Type: name, Reason: "generic module types are not supported"}
	}
	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil, &InputShapeError{Pkg: pkg.Path(), Type: name, Reason: "underlying type is not a struct"}
	}

	m := &Module{
		Name: named.Obj().Name(),
		Pkg:  named.Obj().Pkg(),
		Type: named,
	}
	scope := m.Pkg.Scope()
	for _, n := range scope.Names() {
		v, ok := scope.Lookup(n).(*types.Var)
		if !ok || !v.Exported() {
			continue
		}
		t := types.Unalias(v.Type())
		if p, ok := t.(*types.Pointer); ok {
			t = types.Unalias(p.Elem())
		}
		if types.Identical(t, named) {
			m.InstanceCount++
			if m.Instance == nil {
				m.Instance = v
			}
		}
	}
	return m, nil
}

// Members enumerates the module's exposed members in declaration order:
// exported methods declared on the type (the pointer method set, so both
// receiver kinds appear) and exported struct fields. Methods promoted from
// embedded fields belong to the embedded type and are skipped, as are
// anonymous fields themselves and constructor-like methods whose direct
// result is the module type again.
func (m *Module) Members(fset *token.FileSet) []Member {
	var out []Member

	mset := types.NewMethodSet(types.NewPointer(m.Type))
	valset := types.NewMethodSet(m.Type)
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		if len(sel.Index()) > 1 {
			continue
		}
		fn := sel.Obj().(*types.Func)
		if !fn.Exported() {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if constructorLike(sig, m.Type) {
			continue
		}
		groups, result := unwind(sig)
		out = append(out, Member{
			RawName:         fn.Name(),
			Kind:            CallableMember,
			Groups:          groups,
			Result:          result,
			PointerReceiver: valset.Lookup(fn.Pkg(), fn.Name()) == nil,
			pos:             fset.Position(fn.Pos()),
		})
	}

	st := m.Type.Underlying().(*types.Struct)
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() || f.Anonymous() {
			continue
		}
		out = append(out, Member{
			RawName: f.Name(),
			Kind:    ValueMember,
			Result:  f.Type(),
			pos:     fset.Position(f.Pos()),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].pos, out[j].pos
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		return pi.Offset < pj.Offset
	})
	return out
}

// constructorLike reports whether the method's direct result is the module
// type itself, by value or pointer. Such methods derive fresh module
// instances (transaction-scoped copies and the like) and are not members to
// check.
func constructorLike(sig *types.Signature, mod *types.Named) bool {
	if sig.Results().Len() != 1 {
		return false
	}
	t := types.Unalias(sig.Results().At(0).Type())
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	return types.Identical(t, mod)
}

// unwind splits a callable's type into parameter groups and a final result.
// Every func layer contributes one group; the chain follows single results
// through structural func types (aliases included) and stops at the first
// result that is neither. A layer with zero or multiple results terminates
// with its result tuple, and a defined func type is treated as an ordinary
// nominal result rather than another layer.
func unwind(sig *types.Signature) ([][]Param, types.Type) {
	var groups [][]Param
	cur := sig
	for {
		groups = append(groups, paramGroup(cur))
		if cur.Results().Len() != 1 {
			return groups, cur.Results()
		}
		res := cur.Results().At(0).Type()
		next, ok := types.Unalias(res).(*types.Signature)
		if !ok {
			return groups, res
		}
		cur = next
	}
}

func paramGroup(sig *types.Signature) []Param {
	params := sig.Params()
	group := make([]Param, 0, params.Len())
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		group = append(group, Param{
			Name:     p.Name(),
			Type:     p.Type(),
			Variadic: sig.Variadic() && i == params.Len()-1,
		})
	}
	return group
}
