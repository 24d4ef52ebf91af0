// Package intake implements the Pub/Sub Intake (C8): subscribes to the
// configured MQTT topic list and dispatches each message through
// Decode -> Mapping -> Matcher, per spec.md §4.7. Grounded on
// consumer.go's per-source fan-out shape, adapted from HTTP polling to
// MQTT callback registration.
package intake

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/transitfusion/gtfsrealtime/internal/config"
	"github.com/transitfusion/gtfsrealtime/internal/decode"
	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/matcher"
	"github.com/transitfusion/gtfsrealtime/internal/nominal"
	"github.com/transitfusion/gtfsrealtime/internal/queue"
)

const (
	typeServiceAlerts    = "gtfsrt-service-alerts"
	typeTripUpdates      = "gtfsrt-trip-updates"
	typeVehiclePositions = "gtfsrt-vehicle-positions"
)

// Intake owns the MQTT client and the resolved subscription list.
type Intake struct {
	client        mqtt.Client
	subscriptions []config.MQTTSubscription
	reviewSeconds int

	indexStore *nominal.Store
	queues     *queue.Queues
	matchCfg   config.MatchingConfig
	log        logging.Logger
}

// New builds an Intake; Start connects and subscribes.
func New(cfg config.MQTTConfig, reviewSeconds int, indexStore *nominal.Store, queues *queue.Queues, matchCfg config.MatchingConfig, log logging.Logger) *Intake {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	in := &Intake{
		subscriptions: cfg.Subscriptions,
		reviewSeconds: reviewSeconds,
		indexStore:    indexStore,
		queues:        queues,
		matchCfg:      matchCfg,
		log:           log,
	}
	opts.SetDefaultPublishHandler(in.onMessage)
	in.client = mqtt.NewClient(opts)
	return in
}

// Start connects to the broker and subscribes to every configured
// topic. Intake is expected to receive retained messages after
// (re)subscribe; no initial fetch is performed explicitly.
func (in *Intake) Start(ctx context.Context) error {
	token := in.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connect to mqtt broker: timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}

	for _, sub := range in.subscriptions {
		subToken := in.client.Subscribe(sub.Topic, 0, in.onMessage)
		if !subToken.WaitTimeout(10 * time.Second) {
			return fmt.Errorf("subscribe to %s: timed out", sub.Topic)
		}
		if err := subToken.Error(); err != nil {
			return fmt.Errorf("subscribe to %s: %w", sub.Topic, err)
		}
		in.log.Info("subscribed", "topic", sub.Topic, "type", sub.Type)
	}

	go func() {
		<-ctx.Done()
		in.client.Disconnect(250)
	}()
	return nil
}

// onMessage dispatches one MQTT message: the first subscription whose
// topic pattern matches provides the type and mapping.
func (in *Intake) onMessage(_ mqtt.Client, msg mqtt.Message) {
	sub, ok := in.resolveSubscription(msg.Topic())
	if !ok {
		in.log.Debug("no subscription matched topic", "topic", msg.Topic())
		return
	}

	idx := in.indexStore.Current()
	if idx == nil {
		in.log.Warn("dropping message: nominal index not yet built", "topic", msg.Topic())
		return
	}

	feed, err := decode.Decode(msg.Payload(), in.reviewSeconds, time.Now().Unix())
	if err != nil {
		if err == decode.ErrStaleFeed {
			in.log.Warn("stale feed discarded", "topic", msg.Topic())
		} else {
			in.log.Info("feed decode failed", "topic", msg.Topic(), "error", err)
		}
		return
	}

	mapping := matcher.Mapping{Routes: sub.Mapping.Routes, Stops: sub.Mapping.Stops}
	session := matcher.NewSession(idx, mapping, in.queues, in.matchCfg, in.log)
	now := time.Now().Unix()

	for _, entity := range feed.GetEntity() {
		switch sub.Type {
		case typeTripUpdates:
			session.MatchTripUpdate(entity, now)
		case typeServiceAlerts:
			session.MatchServiceAlert(entity, now)
		case typeVehiclePositions:
			session.MatchVehiclePosition(entity, now)
		}
	}
}

func (in *Intake) resolveSubscription(topic string) (config.MQTTSubscription, bool) {
	for _, sub := range in.subscriptions {
		if MatchTopic(sub.Topic, topic) {
			return sub, true
		}
	}
	return config.MQTTSubscription{}, false
}
