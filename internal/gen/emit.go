package gen

import (
	"bytes"
	"fmt"
	"text/template"
)

// GeneratedFile is a rendered output file. Filename is as configured,
// relative to the config file's directory.
type GeneratedFile struct {
	Filename string
	Content  string
}

type fileContext struct {
	Package        string
	Var            string
	DescriptorType string
	Modules        []string
	Imports        []importLine
	Descriptors    []Descriptor
}

const descriptorFileTemplate = `// Code generated by querycheck. DO NOT EDIT.
//
// Checkable members of:
{{- range .Modules}}
//   {{.}}
{{- end}}

package {{.Package}}

import (
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

// {{.Var}} lists one check per member, in scan order.
var {{.Var}} = []{{.DescriptorType}}{
{{- range .Descriptors}}
	{
		Name:    {{printf "%q" .Name}},
		RawName: {{printf "%q" .RawName}},
		Checked: {{.Expr}},
	},
{{- end}}
}
`

func renderFile(out OutputSpec, descriptorType string, im *imports, modules []string, ds []Descriptor) (*GeneratedFile, error) {
	tmpl, err := template.New("descriptors").Parse(descriptorFileTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse descriptor template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, fileContext{
		Package:        out.Package,
		Var:            out.Var,
		DescriptorType: descriptorType,
		Modules:        modules,
		Imports:        im.list(),
		Descriptors:    ds,
	})
	if err != nil {
		return nil, fmt.Errorf("render descriptor file: %w", err)
	}
	return &GeneratedFile{Filename: out.File, Content: buf.String()}, nil
}
