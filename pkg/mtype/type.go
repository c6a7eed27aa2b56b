// Package mtype adapts vito/dang's pkg/hm Hindley-Milner Type interface
// (Name/Eq/String) into the closed TypeDescriptor variant set spec.md §6
// names for the (opaque, externally supplied) type engine: DefinedRecord,
// DefinedTable, AnyUnion, and primitive/unknown variants, each carrying an
// IsNullable flag. Unification, generalization, and substitution
// (hm/unify.go, hm/substitutions.go, hm/generalize.go) have no caller here
// — the type engine itself remains out of scope per spec.md §1 — so only
// the descriptor shape is kept.
package mtype

import "fmt"

// Type is the common interface every type descriptor implements.
type Type interface {
	Name() string
	IsNullable() bool
	Eq(Type) bool
	fmt.Stringer
}

// Primitive is a built-in scalar/opaque type, e.g. "number" or "text".
type Primitive struct {
	PrimitiveName string
	Nullable      bool
}

func (p Primitive) Name() string      { return p.PrimitiveName }
func (p Primitive) IsNullable() bool  { return p.Nullable }
func (p Primitive) String() string    { return p.PrimitiveName }
func (p Primitive) Eq(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.PrimitiveName == p.PrimitiveName && o.Nullable == p.Nullable
}

// Unknown is returned when the type engine has no information.
type Unknown struct{}

func (Unknown) Name() string       { return "unknown" }
func (Unknown) IsNullable() bool   { return false }
func (Unknown) String() string     { return "unknown" }
func (Unknown) Eq(other Type) bool { _, ok := other.(Unknown); return ok }

// Field is one (name, type) pair of a record/table type.
type Field struct {
	Name string
	Type Type
}

// DefinedRecord is a record type with a known, closed (or open) field set.
type DefinedRecord struct {
	Fields   map[string]Type
	IsOpen   bool
	Nullable bool
}

func (r DefinedRecord) Name() string     { return "record" }
func (r DefinedRecord) IsNullable() bool { return r.Nullable }
func (r DefinedRecord) String() string   { return "record" }
func (r DefinedRecord) Eq(other Type) bool {
	o, ok := other.(DefinedRecord)
	if !ok || len(o.Fields) != len(r.Fields) || o.IsOpen != r.IsOpen {
		return false
	}
	for k, v := range r.Fields {
		ov, ok := o.Fields[k]
		if !ok || !v.Eq(ov) {
			return false
		}
	}
	return true
}

// SortedFields returns the record's (name, type) pairs sorted by name, for
// deterministic completion ordering.
func (r DefinedRecord) SortedFields() []Field {
	return sortedFields(r.Fields)
}

// DefinedTable is a table type: structurally a record of column types.
type DefinedTable struct {
	Fields   map[string]Type
	IsOpen   bool
	Nullable bool
}

func (t DefinedTable) Name() string     { return "table" }
func (t DefinedTable) IsNullable() bool { return t.Nullable }
func (t DefinedTable) String() string   { return "table" }
func (t DefinedTable) Eq(other Type) bool {
	o, ok := other.(DefinedTable)
	if !ok || len(o.Fields) != len(t.Fields) || o.IsOpen != t.IsOpen {
		return false
	}
	for k, v := range t.Fields {
		ov, ok := o.Fields[k]
		if !ok || !v.Eq(ov) {
			return false
		}
	}
	return true
}

// SortedFields returns the table's (name, type) pairs sorted by name.
func (t DefinedTable) SortedFields() []Field {
	return sortedFields(t.Fields)
}

func sortedFields(m map[string]Type) []Field {
	out := make([]Field, 0, len(m))
	for k, v := range m {
		out = append(out, Field{Name: k, Type: v})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// AnyUnion represents a union of member types, e.g. the result of a
// conditional expression whose branches disagree.
type AnyUnion struct {
	Members  []Type
	Nullable bool
}

func (u AnyUnion) Name() string     { return "any" }
func (u AnyUnion) IsNullable() bool { return u.Nullable }
func (u AnyUnion) String() string   { return "any" }
func (u AnyUnion) Eq(other Type) bool {
	o, ok := other.(AnyUnion)
	if !ok || len(o.Members) != len(u.Members) {
		return false
	}
	for i := range u.Members {
		if !u.Members[i].Eq(o.Members[i]) {
			return false
		}
	}
	return true
}

// RecordOrTableFields returns the field map of t if t (or, for an
// AnyUnion, any of its members) is a DefinedRecord or DefinedTable, per
// spec.md §4.H: "If the inferred type is a defined record or defined
// table (including any-union branches that are defined records/tables),
// enumerate its (fieldName, fieldType) pairs."
func RecordOrTableFields(t Type) ([]Field, bool) {
	switch v := t.(type) {
	case DefinedRecord:
		return v.SortedFields(), true
	case DefinedTable:
		return v.SortedFields(), true
	case AnyUnion:
		var out []Field
		found := false
		for _, m := range v.Members {
			if fields, ok := RecordOrTableFields(m); ok {
				out = append(out, fields...)
				found = true
			}
		}
		return out, found
	default:
		return nil, false
	}
}
