package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// Subjects carried by the enrichment streams.
const (
	SubjectRequest      = "geofotos.enrich.request"
	SubjectDonePrefix   = "geofotos.enrich.done."
	SubjectDoneWildcard = SubjectDonePrefix + ">"
)

// doneGeohashLen is the geohash precision used in completion subjects
// (cells of roughly 40 km), so listeners can subscribe by region.
const doneGeohashLen = 4

// DoneSubject returns the completion subject for a geohash.
func DoneSubject(geohash string) string {
	if len(geohash) > doneGeohashLen {
		geohash = geohash[:doneGeohashLen]
	}
	if geohash == "" {
		geohash = "_"
	}
	return SubjectDonePrefix + geohash
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "ENRICH_REQUESTS",
			Subjects:  []string{SubjectRequest},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    72 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "ENRICH_DONE",
			Subjects:  []string{SubjectDoneWildcard},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishEnrichmentRequested queues a job for the enricher workers.
func (p *Publisher) PublishEnrichmentRequested(ctx context.Context, ev *domain.EnrichmentRequested) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRequest, data, nats.Context(ctx), nats.MsgId(ev.JobID))
	return err
}

// PublishEnrichmentCompleted announces a finished job on its regional subject.
func (p *Publisher) PublishEnrichmentCompleted(ctx context.Context, ev *domain.EnrichmentCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(DoneSubject(ev.Geohash), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
