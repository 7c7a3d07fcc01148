// Package ingest reads one epoch window's worth of samples from Kafka
// and decodes them into model.Sample values. Unlike the continuous,
// per-zone streaming consumers this was adapted from, an epoch run is
// a single batch-window read: it drains the configured topic, starting
// at the consumer group's committed offset (or the earliest offset when
// the group has none), until a read deadline or message-count ceiling is
// reached, then returns.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nrg-champ/geohgc/internal/model"
)

// Config groups the Kafka settings for one epoch's batch-window read.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MaxWait  time.Duration
	MaxCount int
}

// ReadEpochWindow drains cfg.Topic until ctx is done, the read
// deadline elapses, or MaxCount messages have been read, decoding
// each message body as a JSON model.Sample.
func ReadEpochWindow(ctx context.Context, cfg Config, log *slog.Logger) ([]model.Sample, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("ingest: no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("ingest: topic is required")
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: []string{cfg.Topic},
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Error("ingest reader close", slog.Any("err", err))
		}
	}()

	deadline, cancel := context.WithTimeout(ctx, cfg.MaxWait)
	defer cancel()

	var samples []model.Sample
	for cfg.MaxCount <= 0 || len(samples) < cfg.MaxCount {
		msg, err := reader.FetchMessage(deadline)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("ingest: fetch: %w", err)
		}

		var s model.Sample
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			log.Warn("ingest: dropping undecodable message", slog.Int64("offset", msg.Offset), slog.String("error", err.Error()))
			continue
		}
		samples = append(samples, s)

		if err := reader.CommitMessages(deadline, msg); err != nil {
			log.Warn("ingest: commit failed", slog.Any("err", err))
		}
	}

	log.Info("ingest: batch window closed", slog.String("topic", cfg.Topic), slog.Int("samples", len(samples)))
	return samples, nil
}
