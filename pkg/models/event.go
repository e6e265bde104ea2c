// Package models defines the in-memory decay event record shared by every
// reader and writer, together with the column catalogue that maps each
// persisted column name onto a field of that record.
//
// An Event is owned by the caller and reused: readers overwrite the same
// instance in place on every advance, so no component may keep a pointer to
// the contents of a previous record after asking for the next one.
package models

// NumCandidates is the fixed number of kaon candidate slots per event.
const NumCandidates = 3

// TreeName identifies the record set that tree-format inputs carry.
const TreeName = "DecayTree"

// Candidate is one hadron-track measurement attached to an event.
type Candidate struct {
	PX     float64
	PY     float64
	PZ     float64
	ProbK  float64
	ProbPi float64
	Charge int32
	IsMuon int32
	// IPChi2 is only populated when the reader was prepared for conversion.
	IPChi2 float64
}

// Event is one B-meson decay candidate with its three hadron tracks.
type Event struct {
	// FlightDistance and VertexChi2 are only populated when the reader was
	// prepared for conversion.
	FlightDistance float64
	VertexChi2     float64
	Kaons          [NumCandidates]Candidate
}

// HasMuon reports whether any candidate carries the muon veto flag.
func (e *Event) HasMuon() bool {
	for i := range e.Kaons {
		if e.Kaons[i].IsMuon != 0 {
			return true
		}
	}
	return false
}

// Reset zeroes the event so it can be reused.
func (e *Event) Reset() {
	*e = Event{}
}

// FieldSet selects groups of event fields for binding.
type FieldSet uint8

const (
	// AnalysisFields are momentum, particle-identification, charge and
	// muon flag of every candidate.
	AnalysisFields FieldSet = 1 << iota
	// ConversionFields are the conditional fields: flight distance, vertex
	// chi2 and per-candidate impact-parameter chi2.
	ConversionFields

	// NoFields selects nothing.
	NoFields FieldSet = 0
	// AllFields selects every field of the record.
	AllFields = AnalysisFields | ConversionFields
)

// Has reports whether every group in other is part of s.
func (s FieldSet) Has(other FieldSet) bool {
	return s&other == other
}

func (s FieldSet) String() string {
	switch s {
	case NoFields:
		return "none"
	case AnalysisFields:
		return "analysis"
	case ConversionFields:
		return "conversion"
	case AllFields:
		return "all"
	default:
		return "invalid"
	}
}
