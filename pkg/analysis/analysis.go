// Package analysis applies the muon veto to decay events and books the
// survivors into histograms.
package analysis

import (
	"github.com/ajitpratap0/hepconv/pkg/metrics"
	"github.com/ajitpratap0/hepconv/pkg/models"
)

// Histograms collects accepted events. Filling only counts entries; no
// physics quantity is computed.
type Histograms struct {
	entries int64
}

// Fill books one accepted event
func (h *Histograms) Fill(_ *models.Event) {
	h.entries++
}

// Entries returns the number of booked events
func (h *Histograms) Entries() int64 {
	return h.entries
}

// Process vetoes ev when any candidate is a muon. Otherwise it fills h and
// returns true.
func Process(ev *models.Event, h *Histograms) bool {
	if ev.HasMuon() {
		metrics.EventsVetoed.Inc()
		return false
	}
	h.Fill(ev)
	return true
}
