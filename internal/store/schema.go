package store

// bootstrapDDL creates the tables the engine reads and writes if they
// do not already exist. Full schema *definition* (column-level DDL
// authoring, migrations) is an out-of-scope collaborator per the
// governing spec; this is the minimal bootstrap a gateway needs to be
// usable standalone, grounded on jfmow-gtfs's createDefaultGTFSTables().
const bootstrapDDL = `
CREATE TABLE IF NOT EXISTS stops (
	stop_id TEXT PRIMARY KEY,
	stop_name TEXT,
	stop_lat REAL,
	stop_lon REAL,
	location_type INTEGER,
	parent_station TEXT,
	wheelchair_boarding INTEGER
);

CREATE TABLE IF NOT EXISTS routes (
	route_id TEXT PRIMARY KEY,
	agency_id TEXT,
	route_short_name TEXT,
	route_long_name TEXT,
	route_type INTEGER,
	route_color TEXT,
	route_text_color TEXT
);

CREATE TABLE IF NOT EXISTS trips (
	trip_id TEXT PRIMARY KEY,
	route_id TEXT,
	service_id TEXT,
	trip_headsign TEXT,
	direction_id INTEGER
);

CREATE TABLE IF NOT EXISTS stop_times (
	trip_id TEXT,
	stop_id TEXT,
	stop_sequence INTEGER,
	arrival_time TEXT,
	departure_time TEXT,
	PRIMARY KEY (trip_id, stop_sequence)
);

CREATE TABLE IF NOT EXISTS calendar_rules (
	service_id TEXT PRIMARY KEY,
	monday INTEGER,
	tuesday INTEGER,
	wednesday INTEGER,
	thursday INTEGER,
	friday INTEGER,
	saturday INTEGER,
	sunday INTEGER,
	start_date TEXT,
	end_date TEXT
);

CREATE TABLE IF NOT EXISTS calendar_exceptions (
	service_id TEXT,
	date TEXT,
	exception_type INTEGER,
	PRIMARY KEY (service_id, date)
);

CREATE TABLE IF NOT EXISTS realtime_trip_updates (
	trip_update_id TEXT PRIMARY KEY,
	trip_id TEXT,
	route_id TEXT,
	direction_id INTEGER,
	start_time TEXT,
	start_date TEXT,
	schedule_relationship TEXT,
	vehicle_id TEXT,
	vehicle_label TEXT,
	timestamp INTEGER,
	delay INTEGER,
	last_updated_timestamp INTEGER
);

CREATE TABLE IF NOT EXISTS realtime_trip_stop_time_updates (
	trip_update_id TEXT,
	stop_sequence INTEGER,
	stop_id TEXT,
	arrival_time INTEGER,
	arrival_delay INTEGER,
	arrival_uncertainty INTEGER,
	departure_time INTEGER,
	departure_delay INTEGER,
	departure_uncertainty INTEGER,
	schedule_relationship TEXT
);

CREATE TABLE IF NOT EXISTS realtime_service_alerts (
	service_alert_id TEXT PRIMARY KEY,
	cause TEXT,
	effect TEXT,
	url TEXT,
	header_text TEXT,
	description_text TEXT,
	tts_header_text TEXT,
	tts_description_text TEXT,
	severity_level TEXT,
	last_updated_timestamp INTEGER
);

CREATE TABLE IF NOT EXISTS realtime_alert_active_periods (
	service_alert_id TEXT,
	start_timestamp INTEGER,
	end_timestamp INTEGER
);

CREATE TABLE IF NOT EXISTS realtime_alert_informed_entities (
	service_alert_id TEXT,
	agency_id TEXT,
	route_id TEXT,
	route_type INTEGER,
	trip_id TEXT,
	stop_id TEXT
);

CREATE TABLE IF NOT EXISTS realtime_vehicle_positions (
	vehicle_position_id TEXT PRIMARY KEY,
	trip_id TEXT,
	route_id TEXT,
	vehicle_id TEXT,
	vehicle_label TEXT,
	latitude REAL,
	longitude REAL,
	bearing REAL,
	speed REAL,
	current_stop_sequence INTEGER,
	current_status TEXT,
	congestion_level TEXT,
	timestamp INTEGER,
	last_updated_timestamp INTEGER
);
`
