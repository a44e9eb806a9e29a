package modmeta

import "fmt"

// Metadata keys that describe declared parameters. Their records are
// merged into one entry per parameter instead of being printed in
// place.
const (
	keyParm     = "parm"
	keyParmType = "parmtype"
)

// renderAll prints every non-parameter field in arrival order, then
// drains the merged parameter table in first-seen order. Labels are
// padded to a 16-column field; keys of 15 or more characters get no
// padding. Under the NUL separator regular fields switch to unlabeled
// key=value form, since alignment columns mean nothing in
// machine-readable output.
func (e *Engine) renderAll(pairs []Pair) {
	sep := e.opts.Separator

	var params paramTable
	for _, p := range pairs {
		switch p.Key {
		case keyParm, keyParmType:
			name, payload, ok := splitParam(p.Value)
			if !ok {
				fmt.Fprintf(e.errw, "ERROR: found invalid \"%s=%s\": missing ':'\n", p.Key, p.Value)
				continue
			}
			if p.Key == keyParm {
				params.upsert(name, &payload, nil)
			} else {
				params.upsert(name, nil, &payload)
			}
		default:
			if sep == SeparatorNull {
				fmt.Fprintf(e.out, "%s=%s%c", p.Key, p.Value, sep)
			} else {
				fmt.Fprintf(e.out, "%-16s%s%c", p.Key+":", p.Value, sep)
			}
		}
	}

	for _, it := range params.entries {
		switch {
		case it.value == nil:
			fmt.Fprintf(e.out, "%-16s%s:%s%c", "parm:", it.name, *it.ptype, sep)
		case it.ptype != nil:
			fmt.Fprintf(e.out, "%-16s%s %s (%s)%c", "parm:", it.name, *it.value, *it.ptype, sep)
		default:
			fmt.Fprintf(e.out, "%-16s%s %s%c", "parm:", it.name, *it.value, sep)
		}
	}
}

// renderField streams the raw values of the one requested field, with
// no labels and no parameter merging. parm and parmtype records are
// treated as opaque values here: requesting "parm" prints each raw
// parm line as encountered, unmerged.
func (e *Engine) renderField(pairs []Pair) {
	for _, p := range pairs {
		if p.Key == e.opts.Field {
			fmt.Fprintf(e.out, "%s%c", p.Value, e.opts.Separator)
		}
	}
}
