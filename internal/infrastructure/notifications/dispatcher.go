package notifications

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
)

type collectorKey struct{}

// Collector gathers the toasts and the navigation target produced while
// serving one request, so the handler can return them to the client.
type Collector struct {
	mu            sync.Mutex
	notifications []entities.Notification
	redirect      string
}

// WithCollector attaches a fresh collector to ctx
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// CollectorFromContext returns the request's collector, or nil
func CollectorFromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}

// Notifications returns a copy of the collected toasts
func (c *Collector) Notifications() []entities.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Redirect returns the last navigation target, if any
func (c *Collector) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// Dispatcher is the Notifier and Navigator used by the services. Every
// toast is logged; when the context carries a Collector it is also queued
// for the response. An optional sink receives toasts as they happen.
type Dispatcher struct {
	sink func(entities.Notification)
}

var (
	_ providers.Notifier  = (*Dispatcher)(nil)
	_ providers.Navigator = (*Dispatcher)(nil)
)

// NewDispatcher creates a dispatcher. sink may be nil.
func NewDispatcher(sink func(entities.Notification)) *Dispatcher {
	return &Dispatcher{sink: sink}
}

// Notify surfaces n to the user
func (d *Dispatcher) Notify(ctx context.Context, n entities.Notification) {
	event := log.Info()
	if n.Variant == entities.NotificationVariantDestructive {
		event = log.Warn()
	}
	event.Str("title", n.Title).Str("description", n.Description).Msg("user notification")

	if c := CollectorFromContext(ctx); c != nil {
		c.mu.Lock()
		c.notifications = append(c.notifications, n)
		c.mu.Unlock()
	}
	if d.sink != nil {
		d.sink(n)
	}
}

// Navigate records path as the client's next route
func (d *Dispatcher) Navigate(ctx context.Context, path string) {
	log.Debug().Str("path", path).Msg("navigate")
	if c := CollectorFromContext(ctx); c != nil {
		c.mu.Lock()
		c.redirect = path
		c.mu.Unlock()
	}
}
