package httpapi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/transitfusion/gtfsrealtime/internal/store"
)

func TestRenderMonitorHTML_EscapesUntrustedFields(t *testing.T) {
	rows := []store.MonitorRow{
		{
			RouteShortName: "<script>alert(1)</script>",
			TripID:         "T&1",
			TripHeadsign:   `"Quoted" Headsign`,
			StartTime:      "08:00:00",
		},
	}

	var buf bytes.Buffer
	renderMonitorHTML(&buf, rows)

	out := buf.String()
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "T&amp;1")
	assert.Contains(t, out, "&#34;Quoted&#34; Headsign")
}

func TestRenderMonitorHTML_RealtimeAvailability(t *testing.T) {
	lastUpdate := int64(1690000000)
	rows := []store.MonitorRow{
		{TripID: "T1", RealtimeAvailable: true, RealtimeLastUpdate: &lastUpdate},
		{TripID: "T2", RealtimeAvailable: false},
	}

	var buf bytes.Buffer
	renderMonitorHTML(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "<td>yes</td><td>1690000000</td>")
	assert.Contains(t, out, "<td>no</td><td></td>")
}

func TestRenderMonitorHTML_EmptyRows_StillValidTable(t *testing.T) {
	var buf bytes.Buffer
	renderMonitorHTML(&buf, nil)

	out := buf.String()
	assert.Contains(t, out, "<table")
	assert.Contains(t, out, "</table>")
	assert.NotContains(t, out, "<tr><td>")
}
