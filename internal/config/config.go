// Package config loads the engine's YAML configuration, matching
// spec.md §6's key table. Shaped like the predecessor's typed
// Config struct + Load() function, but backed by viper so list-of-object
// keys like mqtt.subscriptions[] unmarshal directly into Go structs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved, defaulted configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Caching   CachingConfig   `mapstructure:"caching"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig holds §6's app.* keys.
type AppConfig struct {
	CachingEnabled   bool     `mapstructure:"caching_enabled"`
	MonitorEnabled   bool     `mapstructure:"monitor_enabled"`
	CORSEnabled      bool     `mapstructure:"cors_enabled"`
	MQTTEnabled      bool     `mapstructure:"mqtt_enabled"`
	DataReviewSecs   int      `mapstructure:"data_review_seconds"`
	Timezone         string   `mapstructure:"timezone"`
	FlushIntervalSec int      `mapstructure:"flush_interval_seconds"`
	ListenAddr       string   `mapstructure:"listen_addr"`
	Routing          Routing  `mapstructure:"routing"`
}

// Routing holds the configurable HTTP route paths of §4.5.
type Routing struct {
	ServiceAlertsEndpoint    string `mapstructure:"service_alerts_endpoint"`
	TripUpdatesEndpoint      string `mapstructure:"trip_updates_endpoint"`
	VehiclePositionsEndpoint string `mapstructure:"vehicle_positions_endpoint"`
	MonitorEndpoint          string `mapstructure:"monitor_endpoint"`
}

// CachingConfig holds §6's caching.* keys.
type CachingConfig struct {
	ServerEndpoint            string `mapstructure:"caching_server_endpoint"`
	ServiceAlertsTTLSeconds   int    `mapstructure:"caching_service_alerts_ttl_seconds"`
	TripUpdatesTTLSeconds     int    `mapstructure:"caching_trip_updates_ttl_seconds"`
	VehiclePositionsTTLSeconds int   `mapstructure:"caching_vehicle_positions_ttl_seconds"`
}

// MatchingConfig holds §4.1.1's three verification flags plus the
// §9-resolved translation language open question.
type MatchingConfig struct {
	MatchAgainstFirstStopID bool   `mapstructure:"match_against_first_stop_id"`
	MatchAgainstStopIDs     bool   `mapstructure:"match_against_stop_ids"`
	RemoveInvalidStopIDs    bool   `mapstructure:"remove_invalid_stop_ids"`
	TranslationLanguage     string `mapstructure:"translation_language"`
}

// MQTTSubscription is one entry of mqtt.subscriptions[]. Mapping is the
// CSV-pair ID mapper of spec.md §4.7 (routes and/or stops), expressed
// here as YAML maps rather than quoted ';'-separated pairs, since the
// engine's own configuration format is YAML rather than the one-line
// topic-declaration syntax of the collaborator CLI.
type MQTTSubscription struct {
	Topic   string          `mapstructure:"topic"`
	Type    string          `mapstructure:"type"`
	Mapping SubscriptionMap `mapstructure:"mapping"`
}

// SubscriptionMap is the ID Mapper (C3) table declared by a subscription.
type SubscriptionMap struct {
	Routes map[string]string `mapstructure:"routes"`
	Stops  map[string]string `mapstructure:"stops"`
}

// MQTTConfig holds the pub/sub connection and subscription list.
type MQTTConfig struct {
	Host           string             `mapstructure:"host"`
	Port           int                `mapstructure:"port"`
	ClientID       string             `mapstructure:"client"`
	KeepAlive      int                `mapstructure:"keepalive"`
	Username       string             `mapstructure:"username"`
	Password       string             `mapstructure:"password"`
	Subscriptions  []MQTTSubscription `mapstructure:"subscriptions"`
}

// StoreConfig selects and configures the analytical store backend.
type StoreConfig struct {
	DSN          string `mapstructure:"dsn"`
	WriterDSN    string `mapstructure:"writer_dsn"`
}

// LoggingConfig mirrors the predecessor's logging section.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	AlertURL   string `mapstructure:"alert_webhook_url"`
}

// Load reads the YAML file at path (if non-empty), overlays environment
// variables (GTFSRT_ prefixed, dots replaced with underscores), and
// returns a defaulted Config. Matches spec.md §6's merge-over-defaults
// semantics.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GTFSRT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.caching_enabled", false)
	v.SetDefault("app.monitor_enabled", true)
	v.SetDefault("app.cors_enabled", true)
	v.SetDefault("app.mqtt_enabled", true)
	v.SetDefault("app.data_review_seconds", 7200)
	v.SetDefault("app.timezone", "Europe/Berlin")
	v.SetDefault("app.flush_interval_seconds", 15)
	v.SetDefault("app.listen_addr", ":8080")
	v.SetDefault("app.routing.service_alerts_endpoint", "/gtfs/realtime/service-alerts.pbf")
	v.SetDefault("app.routing.trip_updates_endpoint", "/gtfs/realtime/trip-updates.pbf")
	v.SetDefault("app.routing.vehicle_positions_endpoint", "/gtfs/realtime/vehicle-positions.pbf")
	v.SetDefault("app.routing.monitor_endpoint", "/monitor")

	v.SetDefault("caching.caching_service_alerts_ttl_seconds", 60)
	v.SetDefault("caching.caching_trip_updates_ttl_seconds", 30)
	v.SetDefault("caching.caching_vehicle_positions_ttl_seconds", 15)

	v.SetDefault("matching.match_against_first_stop_id", true)
	v.SetDefault("matching.match_against_stop_ids", false)
	v.SetDefault("matching.remove_invalid_stop_ids", true)
	v.SetDefault("matching.translation_language", "de-DE")

	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client", "gtfsrealtime")
	v.SetDefault("mqtt.keepalive", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file_path", "gtfsrealtime.log")
}

// DataReviewWindow returns app.data_review_seconds as a time.Duration.
func (c *Config) DataReviewWindow() time.Duration {
	return time.Duration(c.App.DataReviewSecs) * time.Second
}

// FlushInterval returns app.flush_interval_seconds as a time.Duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.App.FlushIntervalSec) * time.Second
}

// TTL returns the configured TTL for one of the three cacheable endpoints.
func (c *CachingConfig) TTL(endpoint string) time.Duration {
	switch endpoint {
	case "service-alerts":
		return time.Duration(c.ServiceAlertsTTLSeconds) * time.Second
	case "trip-updates":
		return time.Duration(c.TripUpdatesTTLSeconds) * time.Second
	case "vehicle-positions":
		return time.Duration(c.VehiclePositionsTTLSeconds) * time.Second
	default:
		return 0
	}
}
