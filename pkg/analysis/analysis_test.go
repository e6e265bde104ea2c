package analysis

import (
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/metrics"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProcess(t *testing.T) {
	tests := []struct {
		name   string
		muonAt int
		want   bool
	}{
		{"no muon", -1, true},
		{"first candidate", 0, false},
		{"second candidate", 1, false},
		{"third candidate", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev models.Event
			if tt.muonAt >= 0 {
				ev.Kaons[tt.muonAt].IsMuon = 1
			}

			var h Histograms
			vetoedBefore := testutil.ToFloat64(metrics.EventsVetoed)

			assert.Equal(t, tt.want, Process(&ev, &h))
			if tt.want {
				assert.Equal(t, int64(1), h.Entries())
				assert.Equal(t, vetoedBefore, testutil.ToFloat64(metrics.EventsVetoed))
			} else {
				assert.Zero(t, h.Entries())
				assert.Equal(t, vetoedBefore+1, testutil.ToFloat64(metrics.EventsVetoed))
			}
		})
	}
}
