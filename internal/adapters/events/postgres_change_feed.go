package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/pkg/config"
)

// rowChange is the payload emitted by the consultations update trigger
type rowChange struct {
	ID        string                 `json:"id"`
	Record    map[string]interface{} `json:"record"`
	OldRecord map[string]interface{} `json:"old_record"`
}

// PostgresChangeFeed relays consultation row updates from a Postgres
// LISTEN channel onto the event bus, one bus channel per consultation.
type PostgresChangeFeed struct {
	dsn      string
	cfg      config.RealtimeConfig
	eventBus providers.EventBus
}

// NewPostgresChangeFeed creates a relay listening with its own connection to dsn
func NewPostgresChangeFeed(dsn string, cfg config.RealtimeConfig, eventBus providers.EventBus) *PostgresChangeFeed {
	return &PostgresChangeFeed{
		dsn:      dsn,
		cfg:      cfg,
		eventBus: eventBus,
	}
}

// Run listens until ctx is cancelled. lib/pq reconnects on its own; after a
// reconnect notifications sent while disconnected are lost, which is logged.
func (f *PostgresChangeFeed) Run(ctx context.Context) error {
	listener := pq.NewListener(f.dsn, f.cfg.ReconnectMin, f.cfg.ReconnectMax,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnectionAttemptFailed:
				log.Warn().Err(err).Msg("change feed connection attempt failed")
			case pq.ListenerEventDisconnected:
				log.Warn().Err(err).Msg("change feed disconnected")
			case pq.ListenerEventReconnected:
				log.Warn().Msg("change feed reconnected; updates during the outage were not relayed")
			}
		})
	defer listener.Close()

	if err := listener.Listen(f.cfg.NotifyChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.NotifyChannel, err)
	}
	log.Info().Str("channel", f.cfg.NotifyChannel).Msg("change feed listening")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				continue
			}
			if err := f.handle(ctx, n.Extra); err != nil {
				log.Error().Err(err).Msg("failed to relay consultation change")
			}
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				log.Warn().Err(err).Msg("change feed ping failed")
			}
		}
	}
}

func (f *PostgresChangeFeed) handle(ctx context.Context, payload string) error {
	var change rowChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return fmt.Errorf("invalid change payload: %w", err)
	}
	if change.ID == "" {
		return fmt.Errorf("change payload without id")
	}

	changed := entities.DiffRows(change.OldRecord, change.Record)
	if len(changed) == 0 {
		return nil
	}

	event := entities.NewConsultationChange(change.ID, changed)
	return f.eventBus.Publish(ctx, providers.GetConsultationChannel(change.ID), event)
}
