// Package matcher implements the Matcher (C4) and ID Mapper (C3): the
// reconciliation of incoming GTFS-realtime entities against the
// Nominal Index, grounded on the authoritative original implementation
// in src/gtfsduckdb/adapter/gtfsrt.py.
package matcher

import (
	"github.com/transitfusion/gtfsrealtime/internal/config"
	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/nominal"
	"github.com/transitfusion/gtfsrealtime/internal/queue"
)

// Session is a fresh, per-message matcher instance seeded with the
// Nominal Index snapshot current when the message arrived and the
// mapping declared by the subscription it arrived on. Per spec.md §9,
// the pub/sub callback is re-entrant with respect to distinct messages
// but each gets its own Session and local state.
type Session struct {
	idx     *nominal.Index
	mapping Mapping
	queues  *queue.Queues
	cfg     config.MatchingConfig
	lang    string
	log     logging.Logger
}

// NewSession constructs a Session for one incoming message.
func NewSession(idx *nominal.Index, mapping Mapping, queues *queue.Queues, cfg config.MatchingConfig, log logging.Logger) *Session {
	lang := cfg.TranslationLanguage
	if lang == "" {
		lang = "de-DE"
	}
	return &Session{idx: idx, mapping: mapping, queues: queues, cfg: cfg, lang: lang, log: log}
}
