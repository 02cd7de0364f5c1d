package gen

import (
	"fmt"
	"go/types"
	"sort"
)

// imports assigns a stable alias to every package the generated file
// references. The first package with a given name wins the bare name;
// later ones get a numeric suffix. Registration follows member order,
// which is deterministic, so the aliases are too. The package the file
// is generated into, when known, is never registered: the file must not
// import itself, and references to that package render bare.
type imports struct {
	self   string
	byPath map[string]string
	taken  map[string]string
}

func newImports(self string) *imports {
	return &imports{
		self:   self,
		byPath: make(map[string]string),
		taken:  make(map[string]string),
	}
}

// alias registers path under its package name and returns the alias to use
// in rendered code. The output package gets the empty alias and no import
// line.
func (im *imports) alias(path, name string) string {
	if im.self != "" && path == im.self {
		return ""
	}
	if a, ok := im.byPath[path]; ok {
		return a
	}
	alias := name
	for n := 2; ; n++ {
		if _, clash := im.taken[alias]; !clash {
			break
		}
		alias = fmt.Sprintf("%s%d", name, n)
	}
	im.byPath[path] = alias
	im.taken[alias] = path
	return alias
}

// sel renders a reference to name as declared in the package at path,
// qualified with the package alias unless the file is generated into that
// package.
func (im *imports) sel(path, pkgName, name string) string {
	a := im.alias(path, pkgName)
	if a == "" {
		return name
	}
	return a + "." + name
}

// qualifier renders type names with this import set's aliases, registering
// packages as they first appear.
func (im *imports) qualifier() types.Qualifier {
	return func(p *types.Package) string {
		return im.alias(p.Path(), p.Name())
	}
}

type importLine struct {
	Alias string
	Path  string
}

// list returns the registered imports sorted by path.
func (im *imports) list() []importLine {
	out := make([]importLine, 0, len(im.byPath))
	for path, alias := range im.byPath {
		out = append(out, importLine{Alias: alias, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
