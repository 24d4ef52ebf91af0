package httpapi

import (
	"fmt"
	"html"
	"io"

	"github.com/transitfusion/gtfsrealtime/internal/store"
)

// renderMonitorHTML writes a minimal operation-day status table: one
// row per scheduled trip, flagging whether a realtime update has been
// matched to it yet.
func renderMonitorHTML(w io.Writer, rows []store.MonitorRow) {
	io.WriteString(w, "<!DOCTYPE html><html><head><title>GTFS-realtime monitor</title></head><body>\n")
	io.WriteString(w, "<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">\n")
	io.WriteString(w, "<tr><th>Route</th><th>Trip</th><th>Headsign</th><th>Start</th><th>Realtime</th><th>Last update</th></tr>\n")

	for _, row := range rows {
		realtime := "no"
		if row.RealtimeAvailable {
			realtime = "yes"
		}
		lastUpdate := ""
		if row.RealtimeLastUpdate != nil {
			lastUpdate = fmt.Sprintf("%d", *row.RealtimeLastUpdate)
		}
		fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(row.RouteShortName),
			html.EscapeString(row.TripID),
			html.EscapeString(row.TripHeadsign),
			html.EscapeString(row.StartTime),
			realtime,
			lastUpdate,
		)
	}

	io.WriteString(w, "</table></body></html>\n")
}
