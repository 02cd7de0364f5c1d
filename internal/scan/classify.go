package scan

import (
	"go/types"
)

// QueryPath is the import path of the package whose types mark a member's
// final result as checkable.
const QueryPath = "github.com/querycheck/querycheck/pkg/query"

// Names of the recognized type constructors inside QueryPath.
const (
	readName   = "Read"
	execName   = "Exec"
	execOfName = "ExecOf"
)

// ShapeKind enumerates the checkable result shapes.
type ShapeKind int

const (
	// NoShape marks a result that is none of the recognized shapes. Such
	// members are skipped, never failed.
	NoShape ShapeKind = iota
	// ReadQuery is query.Read[E].
	ReadQuery
	// PlainMutation is query.Exec.
	PlainMutation
	// ParamMutation is query.ExecOf[E]; it normalizes to PlainMutation by
	// binding the zero E.
	ParamMutation
)

func (k ShapeKind) String() string {
	switch k {
	case ReadQuery:
		return "read"
	case PlainMutation:
		return "exec"
	case ParamMutation:
		return "exec-of"
	default:
		return "none"
	}
}

// Shape is a classified final result type.
type Shape struct {
	Kind ShapeKind
	// Elem is the element type for ReadQuery and ParamMutation, nil
	// otherwise.
	Elem types.Type
	// Named is the matched instance after alias resolution, nil for
	// NoShape. Its origin object belongs to the recognized package.
	Named *types.Named
}

// Classify decides whether a final result type denotes a checkable shape.
// Aliases are resolved first, so locally re-exported spellings of the
// recognized constructors still match. Defined wrapper types never do: the
// match is on the constructor's own identity, not on underlying structure.
func Classify(t types.Type) (Shape, error) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return Shape{}, nil
	}
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != QueryPath {
		return Shape{}, nil
	}
	// Instantiated generics report their origin's object, so Name()
	// identifies the constructor for Read[E] and ExecOf[E] instances alike.
	switch obj.Name() {
	case readName:
		elem, err := soleTypeArg(named)
		if err != nil {
			return Shape{}, err
		}
		return Shape{Kind: ReadQuery, Elem: elem, Named: named}, nil
	case execName:
		if named.TypeArgs().Len() != 0 {
			return Shape{}, nil
		}
		return Shape{Kind: PlainMutation, Named: named}, nil
	case execOfName:
		elem, err := soleTypeArg(named)
		if err != nil {
			return Shape{}, err
		}
		return Shape{Kind: ParamMutation, Elem: elem, Named: named}, nil
	}
	return Shape{}, nil
}

// ExecType returns the plain mutation type declared alongside the matched
// shape. ParamMutation members normalize to it by binding the zero element.
func (s Shape) ExecType() (types.Type, bool) {
	if s.Named == nil {
		return nil, false
	}
	tn, ok := s.Named.Obj().Pkg().Scope().Lookup(execName).(*types.TypeName)
	if !ok {
		return nil, false
	}
	return tn.Type(), true
}

// soleTypeArg returns the single type argument of a matched generic shape.
// Valid Go cannot use the bare generic as a result type, so a mismatched
// argument count points at a broken load; it is reported rather than
// guessed around.
func soleTypeArg(n *types.Named) (types.Type, error) {
	args := n.TypeArgs()
	if args.Len() != 1 {
		return nil, &MalformedShapeError{Type: n.Obj().Name(), Args: args.Len()}
	}
	return args.At(0), nil
}
