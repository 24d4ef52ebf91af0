// Package decode implements the Feed Decoder (C2): protobuf unmarshal
// of an incoming GTFS-realtime FeedMessage and the freshness filter
// applied before entities reach the Matcher, per spec.md §4.1/§7.
// Grounded on tidbyt-gtfs/parse/realtime.go's proto.Unmarshal usage and
// the freshness check in gtfslake/adapter/gtfsrt.py.
package decode

import (
	"errors"
	"fmt"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// ErrStaleFeed is returned when the feed header's timestamp is older
// than the configured review window. The caller discards the entire
// message.
var ErrStaleFeed = errors.New("feed message is stale")

// Decode unmarshals payload into a FeedMessage and applies the
// freshness filter: if the header carries a timestamp and
// now-timestamp exceeds dataReviewSeconds, ErrStaleFeed is returned
// and the message must not be staged.
func Decode(payload []byte, dataReviewSeconds int, nowUnix int64) (*gtfsrt.FeedMessage, error) {
	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}

	header := msg.GetHeader()
	if header != nil && header.Timestamp != nil {
		age := nowUnix - int64(header.GetTimestamp())
		if age > int64(dataReviewSeconds) {
			return nil, ErrStaleFeed
		}
	}

	return msg, nil
}
