package modmeta

import "strings"

// paramEntry is one declared module parameter, assembled from up to two
// raw records: a "parm" record carrying the description text and a
// "parmtype" record carrying the type tag.
type paramEntry struct {
	name  string
	value *string
	ptype *string
}

// paramTable collects parameter entries keyed by name, preserving the
// order in which names were first seen. Parameter counts are small
// (tens, not thousands), so lookup is a linear scan.
type paramTable struct {
	entries []*paramEntry
}

// upsert finds or creates the entry for name and overwrites whichever
// of value/ptype is non-nil. The last write for a field wins; omitted
// fields are left untouched.
func (t *paramTable) upsert(name string, value, ptype *string) *paramEntry {
	var it *paramEntry
	for _, e := range t.entries {
		if e.name == name {
			it = e
			break
		}
	}
	if it == nil {
		it = &paramEntry{name: name}
		t.entries = append(t.entries, it)
	}
	if value != nil {
		it.value = value
	}
	if ptype != nil {
		it.ptype = ptype
	}
	return it
}

// splitParam splits the value of a parm/parmtype record at its first
// colon into the parameter name and the payload text. ok is false for
// malformed records with no colon.
func splitParam(raw string) (name, payload string, ok bool) {
	return strings.Cut(raw, ":")
}
