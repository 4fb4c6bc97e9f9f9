// Package notify publishes board events (failed deletes, activations) to a
// NATS JetStream stream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	EventTypeDeleteFailed = "delete_failed"
	EventTypeActivated    = "activated"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	Replicas        int
	DuplicateWindow time.Duration
	PublishTimeout  time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "RACEBOARD_EVENTS",
		SubjectPrefix:   "raceboard",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		PublishTimeout:  5 * time.Second,
	}
}

// MessagePublisher is the slice of jetstream.JetStream the publisher uses.
type MessagePublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Envelope is the JSON body of every published message.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RaceID    string          `json:"raceId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DeleteFailedPayload describes a delete the store did not accept.
type DeleteFailedPayload struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Time     string    `json:"time"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

// Publisher is both a racewindow.DeleteObserver and a
// racewindow.ActivationSink.
type Publisher struct {
	nc     *nats.Conn
	js     MessagePublisher
	config JetStreamConfig
	clock  clockwork.Clock
}

var (
	_ racewindow.DeleteObserver = (*Publisher)(nil)
	_ racewindow.ActivationSink = (*Publisher)(nil)
)

// NewJetStreamPublisher connects to NATS and makes sure the stream exists.
func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig, clock clockwork.Clock) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("raceboard"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	p := NewPublisher(js, cfg, clock)
	p.nc = nc
	return p, nil
}

// NewPublisher wraps an existing JetStream handle.
func NewPublisher(js MessagePublisher, cfg JetStreamConfig, clock clockwork.Clock) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{js: js, config: cfg, clock: clock}
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	sc := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Race board delete failures and activations",
		Subjects:    []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if info.Config.MaxAge != sc.MaxAge || info.Config.Replicas != sc.Replicas || info.Config.Duplicates != sc.Duplicates {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// DeleteFailed publishes a delete_failed event. Publish errors are logged.
func (p *Publisher) DeleteFailed(ctx context.Context, failure racewindow.DeleteFailure) {
	payload := DeleteFailedPayload{
		ID:       failure.Item.ID,
		Name:     failure.Item.Name,
		Time:     failure.Item.Time,
		FailedAt: failure.FailedAt,
	}
	if failure.Err != nil {
		payload.Error = failure.Err.Error()
	}

	if err := p.publish(ctx, EventTypeDeleteFailed, failure.Item.ID, payload); err != nil {
		log.Error().Err(err).Str("event_id", failure.Item.ID).Msg("failed to publish delete failure")
	}
}

// Navigate publishes an activated event.
func (p *Publisher) Navigate(ctx context.Context, nav racewindow.Navigation) error {
	return p.publish(ctx, EventTypeActivated, nav.ID, nav)
}

func (p *Publisher) publish(ctx context.Context, eventType, raceID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	eventID := uuid.NewString()
	data, err := json.Marshal(Envelope{
		EventID:   eventID,
		EventType: eventType,
		RaceID:    raceID,
		Timestamp: p.clock.Now().UTC(),
		Payload:   raw,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if p.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.PublishTimeout)
		defer cancel()
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, eventType)
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{eventType},
			"Race-ID":    []string{raceID},
			"Event-ID":   []string{eventID},
		},
	},
		jetstream.WithMsgID(eventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", eventID).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		Msg("published to JetStream")
	return nil
}

// IsConnected reports whether the NATS connection is up. Publishers built
// with NewPublisher have no connection of their own and report true.
func (p *Publisher) IsConnected() bool {
	if p.nc == nil {
		return true
	}
	return p.nc.IsConnected()
}

func (p *Publisher) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
			return fmt.Errorf("drain NATS connection: %w", err)
		}
	}
	return nil
}
