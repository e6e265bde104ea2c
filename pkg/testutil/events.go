package testutil

import (
	"math/rand"

	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/jaswdr/faker"
)

// EventGenerator produces reproducible synthetic decay events
type EventGenerator struct {
	faker faker.Faker
	// MuonRate is the percentage of candidates flagged as muons
	MuonRate int
}

// NewEventGenerator creates a generator seeded with seed
func NewEventGenerator(seed int64) *EventGenerator {
	return &EventGenerator{
		faker:    faker.NewWithSeed(rand.NewSource(seed)),
		MuonRate: 10,
	}
}

// Event returns one synthetic event
func (g *EventGenerator) Event() models.Event {
	ev := models.Event{
		FlightDistance: g.faker.Float64(4, 0, 200),
		VertexChi2:     g.faker.Float64(4, 0, 50),
	}
	for i := range ev.Kaons {
		ev.Kaons[i] = models.Candidate{
			PX:     g.faker.Float64(3, -20000, 20000),
			PY:     g.faker.Float64(3, -20000, 20000),
			PZ:     g.faker.Float64(3, 0, 300000),
			ProbK:  g.faker.Float64(6, 0, 1),
			ProbPi: g.faker.Float64(6, 0, 1),
			Charge: int32(g.faker.IntBetween(0, 1)*2 - 1),
			IPChi2: g.faker.Float64(4, 0, 5000),
		}
		if g.faker.IntBetween(1, 100) <= g.MuonRate {
			ev.Kaons[i].IsMuon = 1
		}
	}
	return ev
}

// Events returns n synthetic events
func (g *EventGenerator) Events(n int) []models.Event {
	out := make([]models.Event, n)
	for i := range out {
		out[i] = g.Event()
	}
	return out
}

// RandomEvents returns n reproducible synthetic events for seed
func RandomEvents(seed int64, n int) []models.Event {
	return NewEventGenerator(seed).Events(n)
}
