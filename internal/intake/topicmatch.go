package intake

import "strings"

// MatchTopic implements MQTT topic filter semantics directly: '+'
// matches exactly one level, '#' matches any (possibly empty) tail and
// is only valid as the final level of filter. Grounded on spec.md
// §4.7/§9, since eclipse/paho.mqtt.golang does not export its internal
// filter matcher.
func MatchTopic(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, fl := range filterLevels {
		if fl == "#" {
			return true
		}
		if i >= len(topicLevels) {
			return false
		}
		if fl == "+" {
			continue
		}
		if fl != topicLevels[i] {
			return false
		}
	}

	return len(filterLevels) == len(topicLevels)
}
