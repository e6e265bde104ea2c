package models

import "fmt"

// Kind is the storage type of a column.
type Kind int

const (
	// KindFloat64 is a 64-bit IEEE float column (REAL, double).
	KindFloat64 Kind = iota
	// KindInt32 is a 32-bit signed integer column (INTEGER, int).
	KindInt32
)

func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt32:
		return "int32"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one persisted column and where it lives in an Event.
type Column struct {
	// Name is the canonical column name shared by every format.
	Name string
	Kind Kind
	// Slot is the candidate index, or -1 for event-level scalars.
	Slot int
	// Group is the field group the column belongs to.
	Group FieldSet

	f64 func(*Event) *float64
	i32 func(*Event) *int32
}

// Float64 returns a pointer to the column's field in ev. It panics for
// integer columns.
func (c Column) Float64(ev *Event) *float64 {
	if c.f64 == nil {
		panic("models: column " + c.Name + " is not a float64 column")
	}
	return c.f64(ev)
}

// Int32 returns a pointer to the column's field in ev. It panics for
// float columns.
func (c Column) Int32(ev *Event) *int32 {
	if c.i32 == nil {
		panic("models: column " + c.Name + " is not an int32 column")
	}
	return c.i32(ev)
}

// Value returns the column's value in ev as float64 or int32.
func (c Column) Value(ev *Event) interface{} {
	if c.Kind == KindInt32 {
		return *c.i32(ev)
	}
	return *c.f64(ev)
}

// Set assigns v to the column's field in ev, converting between the numeric
// types storage engines hand back.
func (c Column) Set(ev *Event, v interface{}) error {
	switch c.Kind {
	case KindInt32:
		n, ok := toInt64(v)
		if !ok {
			return fmt.Errorf("column %s: cannot assign %T to int32", c.Name, v)
		}
		*c.i32(ev) = int32(n)
	default:
		f, ok := toFloat64(v)
		if !ok {
			return fmt.Errorf("column %s: cannot assign %T to float64", c.Name, v)
		}
		*c.f64(ev) = f
	}
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

var catalogue = buildCatalogue()

func buildCatalogue() []Column {
	cols := []Column{
		{
			Name: "B_FlightDistance", Kind: KindFloat64, Slot: -1, Group: ConversionFields,
			f64: func(e *Event) *float64 { return &e.FlightDistance },
		},
		{
			Name: "B_VertexChi2", Kind: KindFloat64, Slot: -1, Group: ConversionFields,
			f64: func(e *Event) *float64 { return &e.VertexChi2 },
		},
	}

	for slot := 0; slot < NumCandidates; slot++ {
		s := slot
		prefix := fmt.Sprintf("H%d_", s+1)
		cols = append(cols,
			Column{Name: prefix + "PX", Kind: KindFloat64, Slot: s, Group: AnalysisFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].PX }},
			Column{Name: prefix + "PY", Kind: KindFloat64, Slot: s, Group: AnalysisFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].PY }},
			Column{Name: prefix + "PZ", Kind: KindFloat64, Slot: s, Group: AnalysisFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].PZ }},
			Column{Name: prefix + "ProbK", Kind: KindFloat64, Slot: s, Group: AnalysisFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].ProbK }},
			Column{Name: prefix + "ProbPi", Kind: KindFloat64, Slot: s, Group: AnalysisFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].ProbPi }},
			Column{Name: prefix + "Charge", Kind: KindInt32, Slot: s, Group: AnalysisFields,
				i32: func(e *Event) *int32 { return &e.Kaons[s].Charge }},
			Column{Name: prefix + "isMuon", Kind: KindInt32, Slot: s, Group: AnalysisFields,
				i32: func(e *Event) *int32 { return &e.Kaons[s].IsMuon }},
			Column{Name: prefix + "IPChi2", Kind: KindFloat64, Slot: s, Group: ConversionFields,
				f64: func(e *Event) *float64 { return &e.Kaons[s].IPChi2 }},
		)
	}
	return cols
}

// Columns returns the 26 persisted columns in declared order. The returned
// slice is a copy.
func Columns() []Column {
	out := make([]Column, len(catalogue))
	copy(out, catalogue)
	return out
}

// ColumnsFor returns the columns whose group is selected by fields, in
// declared order.
func ColumnsFor(fields FieldSet) []Column {
	out := make([]Column, 0, len(catalogue))
	for _, c := range catalogue {
		if fields.Has(c.Group) {
			out = append(out, c)
		}
	}
	return out
}

// MuonColumns returns the three muon-flag columns in slot order.
func MuonColumns() []Column {
	out := make([]Column, 0, NumCandidates)
	for _, c := range catalogue {
		if c.Kind == KindInt32 && c.Name == fmt.Sprintf("H%d_isMuon", c.Slot+1) {
			out = append(out, c)
		}
	}
	return out
}

// ColumnByName looks a column up by its canonical name.
func ColumnByName(name string) (Column, bool) {
	for _, c := range catalogue {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
