// Copyright 2015 PingCAP, Inc.
// Copyright 2024 The SQLNet Company GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package types implements the engine's column store: three immutable
// concrete column shapes plus a model-scoped categorical encoding.
// Columns are read-only after construction; there is no write path beyond
// the constructors.
package types

import "math"

// Kind identifies the concrete value representation of a Column.
type Kind int

const (
	// KindFloat backs numerical, time_stamp, discrete and target roles.
	KindFloat Kind = iota
	// KindInt backs the categorical (cat) role: 32-bit, negative = null.
	KindInt
	// KindText backs the text role: one []int32 token slice per row.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// NullCat is the sentinel for a missing/unknown categorical value.
const NullCat int32 = -1

// IsNullFloat reports whether a numerical value is the null
// representation (NaN).
func IsNullFloat(v float64) bool { return math.IsNaN(v) }

// IsNullCat reports whether an encoded categorical value is null. Any
// negative value counts, not just NullCat.
func IsNullCat(v int32) bool { return v < 0 }

// Column is the read-only contract every column shape satisfies. It is the
// boundary this core consumes from the (out-of-scope) DataFrame loader.
type Column interface {
	// Name is the column's identifier within its DataFrame.
	Name() string
	// Unit is an optional unit label used to pair up same-units columns
	// across tables for difference candidates.
	Unit() string
	// Len is the number of logical rows.
	Len() int
	// Kind reports the concrete value representation.
	Kind() Kind
}

// FloatColumn is a dense, immutable vector of float64 values.
type FloatColumn struct {
	name string
	unit string
	data []float64
}

// NewFloatColumn constructs a FloatColumn. data is not copied; callers must
// not mutate it afterwards (columns are immutable after construction).
func NewFloatColumn(name, unit string, data []float64) *FloatColumn {
	return &FloatColumn{name: name, unit: unit, data: data}
}

func (c *FloatColumn) Name() string  { return c.name }
func (c *FloatColumn) Unit() string  { return c.unit }
func (c *FloatColumn) Len() int      { return len(c.data) }
func (c *FloatColumn) Kind() Kind    { return KindFloat }
func (c *FloatColumn) At(i int) float64 { return c.data[i] }

// Raw exposes the backing slice for bulk-copy callers (e.g. building a
// ColumnView's materialized data). Callers must treat it as read-only.
func (c *FloatColumn) Raw() []float64 { return c.data }

// IntColumn is a dense, immutable vector of int32 values (categorical ids).
type IntColumn struct {
	name string
	unit string
	data []int32
}

// NewIntColumn constructs an IntColumn.
func NewIntColumn(name, unit string, data []int32) *IntColumn {
	return &IntColumn{name: name, unit: unit, data: data}
}

func (c *IntColumn) Name() string    { return c.name }
func (c *IntColumn) Unit() string    { return c.unit }
func (c *IntColumn) Len() int        { return len(c.data) }
func (c *IntColumn) Kind() Kind      { return KindInt }
func (c *IntColumn) At(i int) int32  { return c.data[i] }
func (c *IntColumn) Raw() []int32    { return c.data }

// TextColumn is a dense, immutable vector of per-row tokenized word-id
// sequences.
type TextColumn struct {
	name string
	unit string
	rows [][]int32
}

// NewTextColumn constructs a TextColumn.
func NewTextColumn(name, unit string, rows [][]int32) *TextColumn {
	return &TextColumn{name: name, unit: unit, rows: rows}
}

func (c *TextColumn) Name() string     { return c.name }
func (c *TextColumn) Unit() string     { return c.unit }
func (c *TextColumn) Len() int         { return len(c.rows) }
func (c *TextColumn) Kind() Kind       { return KindText }
func (c *TextColumn) At(i int) []int32 { return c.rows[i] }

// ColumnView presents a Column under a row permutation/projection: logical
// row i maps to the underlying column's row idx[i]. It lets an algorithm
// work on a subsample (e.g. C9's per-round resample) without copying the
// backing array.
type ColumnView struct {
	base Column
	idx  []int32
}

// NewColumnView wraps base under the given row index projection.
func NewColumnView(base Column, idx []int32) *ColumnView {
	return &ColumnView{base: base, idx: idx}
}

func (v *ColumnView) Name() string { return v.base.Name() }
func (v *ColumnView) Unit() string { return v.base.Unit() }
func (v *ColumnView) Len() int     { return len(v.idx) }
func (v *ColumnView) Kind() Kind   { return v.base.Kind() }

// Base returns the underlying column (shared, not copied).
func (v *ColumnView) Base() Column { return v.base }

// Index returns the row permutation: view row i ↦ base row Index()[i].
func (v *ColumnView) Index() []int32 { return v.idx }

// Float reads row i as a float64; base must be a *FloatColumn.
func (v *ColumnView) Float(i int) float64 {
	return v.base.(*FloatColumn).At(int(v.idx[i]))
}

// Int reads row i as an int32; base must be an *IntColumn.
func (v *ColumnView) Int(i int) int32 {
	return v.base.(*IntColumn).At(int(v.idx[i]))
}

// Text reads row i as a token slice; base must be a *TextColumn.
func (v *ColumnView) Text(i int) []int32 {
	return v.base.(*TextColumn).At(int(v.idx[i]))
}
