package mtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func number() Type   { return Primitive{PrimitiveName: "number"} }
func text() Type     { return Primitive{PrimitiveName: "text"} }
func nullNum() Type  { return Primitive{PrimitiveName: "number", Nullable: true} }

func TestPrimitive_Eq(t *testing.T) {
	assert.True(t, number().Eq(number()))
	assert.False(t, number().Eq(text()))
	assert.False(t, number().Eq(nullNum()), "nullability is part of equality")
}

func TestUnknown_Eq(t *testing.T) {
	assert.True(t, Unknown{}.Eq(Unknown{}))
	assert.False(t, Unknown{}.Eq(number()))
}

func TestDefinedRecord_Eq(t *testing.T) {
	a := DefinedRecord{Fields: map[string]Type{"x": number(), "y": text()}}
	b := DefinedRecord{Fields: map[string]Type{"x": number(), "y": text()}}
	c := DefinedRecord{Fields: map[string]Type{"x": number()}}
	d := DefinedRecord{Fields: map[string]Type{"x": number(), "y": text()}, IsOpen: true}

	assert.True(t, a.Eq(b))
	assert.False(t, a.Eq(c))
	assert.False(t, a.Eq(d))
}

func TestDefinedRecord_SortedFields(t *testing.T) {
	r := DefinedRecord{Fields: map[string]Type{"zeta": number(), "alpha": text(), "mid": number()}}
	fields := r.SortedFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestDefinedTable_Eq(t *testing.T) {
	a := DefinedTable{Fields: map[string]Type{"x": number()}}
	b := DefinedTable{Fields: map[string]Type{"x": number()}}
	assert.True(t, a.Eq(b))
}

func TestAnyUnion_Eq(t *testing.T) {
	a := AnyUnion{Members: []Type{number(), text()}}
	b := AnyUnion{Members: []Type{number(), text()}}
	c := AnyUnion{Members: []Type{text(), number()}}

	assert.True(t, a.Eq(b))
	assert.False(t, a.Eq(c), "member order matters")
}

func TestRecordOrTableFields_record(t *testing.T) {
	r := DefinedRecord{Fields: map[string]Type{"x": number()}}
	fields, ok := RecordOrTableFields(r)
	assert.True(t, ok)
	assert.Len(t, fields, 1)
	assert.Equal(t, "x", fields[0].Name)
}

func TestRecordOrTableFields_table(t *testing.T) {
	tb := DefinedTable{Fields: map[string]Type{"col": text()}}
	fields, ok := RecordOrTableFields(tb)
	assert.True(t, ok)
	assert.Len(t, fields, 1)
}

func TestRecordOrTableFields_unknownIsNotEligible(t *testing.T) {
	_, ok := RecordOrTableFields(Unknown{})
	assert.False(t, ok)
}

func TestRecordOrTableFields_anyUnionFlattensDefinedMembers(t *testing.T) {
	u := AnyUnion{Members: []Type{
		DefinedRecord{Fields: map[string]Type{"a": number()}},
		Unknown{},
		DefinedTable{Fields: map[string]Type{"b": text()}},
	}}
	fields, ok := RecordOrTableFields(u)
	assert.True(t, ok)
	names := map[string]bool{}
	for _, f := range fields {
		names[f.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
}

func TestRecordOrTableFields_anyUnionAllOpaqueIsIneligible(t *testing.T) {
	u := AnyUnion{Members: []Type{Unknown{}, number()}}
	_, ok := RecordOrTableFields(u)
	assert.False(t, ok)
}
