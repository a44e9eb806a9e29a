package modmeta

import (
	"fmt"
	"io"
)

// Engine produces the report for one module at a time. Report rows go
// to out; diagnostics go to errw and never mix with report output.
// Modules are processed independently; no state survives between
// Process calls.
type Engine struct {
	opts Options
	out  io.Writer
	errw io.Writer
}

// NewEngine returns an engine for the given output mode and streams.
func NewEngine(opts Options, out, errw io.Writer) *Engine {
	return &Engine{opts: opts, out: out, errw: errw}
}

// Process writes one module's report. Malformed parameter records are
// reported on the diagnostic stream and skipped; a metadata extraction
// failure aborts this module's report only. Fields already printed
// before a failure are not retracted.
func (e *Engine) Process(mod Module) error {
	switch e.opts.Field {
	case FieldFilename:
		fmt.Fprintf(e.out, "%s%c", mod.Path(), e.opts.Separator)
		return nil
	case "":
		fmt.Fprintf(e.out, "%-16s%s%c", "filename:", mod.Path(), e.opts.Separator)
	}

	pairs, err := mod.Info()
	if err != nil {
		fmt.Fprintf(e.errw, "ERROR: could not get modinfo from '%s': %v\n", mod.Name(), err)
		return err
	}

	if e.opts.Field != "" {
		e.renderField(pairs)
		return nil
	}
	e.renderAll(pairs)
	return nil
}
