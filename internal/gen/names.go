package gen

import (
	"fmt"

	"go.uber.org/zap"
)

// assignNames gives every descriptor a display name unique within the
// sequence. The bare "<Module>.<member>" form is preferred. When several
// descriptors share it, each appends its parameter-group signature. When
// even name and signature coincide, the later ones get an ordinal suffix
// and a warning; that case usually means a copied declaration.
func assignNames(ds []Descriptor, log *zap.Logger) []Descriptor {
	counts := make(map[string]int, len(ds))
	for _, d := range ds {
		counts[d.Module+"."+d.RawName]++
	}
	seen := make(map[string]int, len(ds))
	for i := range ds {
		name := ds[i].Module + "." + ds[i].RawName
		if counts[name] > 1 {
			name += ds[i].Sig
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s#%d", name, n)
			log.Warn("members share name and signature",
				zap.String("member", ds[i].Module+"."+ds[i].RawName),
				zap.String("assigned", name))
		}
		ds[i].Name = name
	}
	return ds
}
