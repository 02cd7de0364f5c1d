package scan

import "fmt"

// InputShapeError reports a module reference that does not denote a usable
// module type.
type InputShapeError struct {
	Pkg    string
	Type   string
	Reason string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("module %s.%s: %s", e.Pkg, e.Type, e.Reason)
}

// MalformedShapeError reports a recognized shape whose instantiation does
// not carry exactly one type argument.
type MalformedShapeError struct {
	Type string
	Args int
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("shape %s has %d type arguments, want exactly 1", e.Type, e.Args)
}
