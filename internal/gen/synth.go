package gen

import (
	"fmt"
	"go/types"
	"strings"

	"go.uber.org/zap"

	"github.com/querycheck/querycheck/internal/canon"
	"github.com/querycheck/querycheck/internal/scan"
)

// Descriptor is one synthesized check, ready to print into the generated
// file.
type Descriptor struct {
	// Name is the display name, unique within the emitted sequence. It is
	// assigned by assignNames once the whole sequence is known.
	Name string
	// RawName is the member name as declared.
	RawName string
	// Module is the module's display name.
	Module string
	// Expr is the rendered check.Wrap expression.
	Expr string
	// Sig is the rendered parameter-group signature, used to split display
	// name collisions.
	Sig string
}

// synthesize builds the wrapped invocation for one qualifying member. The
// invocation applies the canonical value of each parameter type group by
// group; a ParamMutation result is then normalized through Bind with the
// zero element, and the whole thing is paired with the capability resolved
// for the final value type.
func (r *Runner) synthesize(mod *scan.Module, mem scan.Member, shape scan.Shape, im *imports, trace *zap.Logger) (Descriptor, error) {
	owner := mod.Name + "." + mem.RawName

	var b strings.Builder
	b.WriteString(receiverExpr(mod, im))
	b.WriteByte('.')
	b.WriteString(mem.RawName)
	if mem.Kind == scan.CallableMember {
		for _, group := range mem.Groups {
			b.WriteByte('(')
			for i, p := range group {
				if i > 0 {
					b.WriteString(", ")
				}
				ref, err := r.reg.Resolve(p.Type, owner)
				if err != nil {
					return Descriptor{}, err
				}
				trace.Debug("parameter resolved",
					zap.String("member", owner),
					zap.String("type", typeLabel(p.Type)),
					zap.String("value", ref.String()))
				b.WriteString(im.sel(ref.PkgPath, ref.PkgName, ref.Name))
				if p.Variadic {
					b.WriteString("...")
				}
			}
			b.WriteByte(')')
		}
	}

	var capT types.Type = shape.Named
	if shape.Kind == scan.ParamMutation {
		execT, ok := shape.ExecType()
		if !ok {
			return Descriptor{}, fmt.Errorf("%s: shape package %s declares no plain mutation type",
				owner, shape.Named.Obj().Pkg().Path())
		}
		b.WriteString(".Bind(")
		b.WriteString(im.sel(scan.QueryPath, "query", "Zero"))
		b.WriteByte('[')
		b.WriteString(types.TypeString(shape.Elem, im.qualifier()))
		b.WriteString("]())")
		capT = execT
		trace.Debug("normalized to exec",
			zap.String("member", owner),
			zap.String("elem", typeLabel(shape.Elem)))
	}

	capRef, err := r.reg.Capability(capT, owner)
	if err != nil {
		return Descriptor{}, err
	}
	trace.Debug("capability resolved",
		zap.String("member", owner),
		zap.String("value", capRef.String()))

	expr := im.sel(canon.CheckPath, "check", "Wrap") + "(" + b.String() + ", " +
		im.sel(capRef.PkgPath, capRef.PkgName, capRef.Name) + ")"
	return Descriptor{
		RawName: mem.RawName,
		Module:  mod.Name,
		Expr:    expr,
		Sig:     renderSig(mem),
	}, nil
}

// receiverExpr renders the expression members are selected from: the
// canonical instance var when exactly one exists, otherwise an addressed
// composite literal, which serves both receiver kinds.
func receiverExpr(mod *scan.Module, im *imports) string {
	if mod.Singleton() {
		return im.sel(mod.Pkg.Path(), mod.Pkg.Name(), mod.Instance.Name())
	}
	return "(&" + im.sel(mod.Pkg.Path(), mod.Pkg.Name(), mod.Name) + "{})"
}

// renderSig renders the parameter groups for display names, e.g.
// "(uuid.UUID, int64)(shop.Tenant)". Value members render as the empty
// string, a zero-parameter callable as "()".
func renderSig(mem scan.Member) string {
	var b strings.Builder
	for _, group := range mem.Groups {
		b.WriteByte('(')
		for i, p := range group {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.Variadic {
				b.WriteString("...")
				if sl, ok := types.Unalias(p.Type).(*types.Slice); ok {
					b.WriteString(typeLabel(sl.Elem()))
					continue
				}
			}
			b.WriteString(typeLabel(p.Type))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// typeLabel renders a type with bare package names, for display names and
// traces. Generated code goes through the imports qualifier instead.
func typeLabel(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string { return p.Name() })
}

// memberLabel summarizes a member's structure for traces.
func memberLabel(mem scan.Member) string {
	if mem.Kind == scan.ValueMember {
		return typeLabel(mem.Result)
	}
	return renderSig(mem) + " " + typeLabel(mem.Result)
}
