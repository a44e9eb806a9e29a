// Package modmeta collates and formats the metadata embedded in kernel
// modules: author, license, description, declared parameters and their
// types. It consumes raw key/value records in module order, merges the
// parm/parmtype records that describe the same parameter into one entry,
// and renders the result in the selected output mode.
package modmeta

// Pair is one raw metadata record, in module order. Keys are not
// unique; each declared parameter contributes a "parm" record and,
// optionally, a "parmtype" record.
type Pair struct {
	Key   string
	Value string
}

// Module is one resolved module handle, as produced by the lookup and
// image-reading layers.
type Module interface {
	// Path returns the canonical file path of the module image.
	Path() string
	// Name returns the module name, used in diagnostics.
	Name() string
	// Info returns the raw metadata records in module order.
	Info() ([]Pair, error)
}

// Record separators for report output.
const (
	SeparatorNewline byte = '\n'
	SeparatorNull    byte = 0
)

// FieldFilename selects the module path pseudo-field, which is
// answered without reading any metadata.
const FieldFilename = "filename"

// Options selects the output mode for a whole run. An empty Field
// means the full report; otherwise only values of the named field are
// printed, raw and unlabeled.
type Options struct {
	Field     string
	Separator byte
}
