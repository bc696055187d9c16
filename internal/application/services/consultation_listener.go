package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
)

// ConsultationListener opens live views of a single consultation
type ConsultationListener struct {
	repo     repositories.ConsultationRepository
	eventBus providers.EventBus
}

// NewConsultationListener creates a new listener
func NewConsultationListener(repo repositories.ConsultationRepository, eventBus providers.EventBus) *ConsultationListener {
	return &ConsultationListener{
		repo:     repo,
		eventBus: eventBus,
	}
}

// ConsultationWatch is a live snapshot of one consultation. Updates carries
// a copy of the snapshot after every applied change and is closed when the
// watch ends.
type ConsultationWatch struct {
	mu       sync.RWMutex
	snapshot entities.ConsultationDetails

	updates chan *entities.ConsultationDetails
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Open fetches the snapshot for roomID (the consultation id) and subscribes
// to its row updates. A missing row is returned as an error and nothing is
// subscribed.
func (l *ConsultationListener) Open(ctx context.Context, roomID string) (*ConsultationWatch, error) {
	details, err := l.repo.GetDetails(ctx, roomID)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := l.eventBus.Subscribe(watchCtx, providers.GetConsultationChannel(roomID))
	if err != nil {
		cancel()
		return nil, err
	}

	w := &ConsultationWatch{
		snapshot: *details,
		updates:  make(chan *entities.ConsultationDetails, 8),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(watchCtx, events)

	log.Debug().Str("consultation_id", roomID).Msg("consultation watch opened")
	return w, nil
}

func (w *ConsultationWatch) run(ctx context.Context, events <-chan *entities.ConsultationChange) {
	defer close(w.done)
	defer close(w.updates)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || event.EventType != entities.ConsultationEventUpdate {
				continue
			}

			next, err := w.apply(event)
			if err != nil {
				log.Warn().Err(err).Str("consultation_id", event.ConsultationID).Msg("failed to apply consultation change")
				continue
			}

			select {
			case w.updates <- next:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *ConsultationWatch) apply(event *entities.ConsultationChange) (*entities.ConsultationDetails, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.snapshot
	if err := next.Apply(event.Changed); err != nil {
		return nil, err
	}
	w.snapshot = next

	copied := next
	return &copied, nil
}

// Snapshot returns a copy of the current state
func (w *ConsultationWatch) Snapshot() *entities.ConsultationDetails {
	w.mu.RLock()
	defer w.mu.RUnlock()
	copied := w.snapshot
	return &copied
}

// Updates returns the stream of snapshots
func (w *ConsultationWatch) Updates() <-chan *entities.ConsultationDetails {
	return w.updates
}

// Close ends the subscription. It is safe to call more than once.
func (w *ConsultationWatch) Close() {
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}
