package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/domain/entities"
)

func TestDispatcher_CollectsPerRequest(t *testing.T) {
	var sunk []string
	d := NewDispatcher(func(n entities.Notification) { sunk = append(sunk, n.Title) })

	ctx, collector := WithCollector(context.Background())
	d.Notify(ctx, entities.Notification{Title: "Error fetching consultations", Variant: entities.NotificationVariantDestructive})
	d.Navigate(ctx, "/")

	require.Len(t, collector.Notifications(), 1)
	assert.Equal(t, "Error fetching consultations", collector.Notifications()[0].Title)
	assert.Equal(t, "/", collector.Redirect())
	assert.Equal(t, []string{"Error fetching consultations"}, sunk)
}

func TestDispatcher_WithoutCollector(t *testing.T) {
	d := NewDispatcher(nil)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), entities.Notification{Title: "Signed out"})
		d.Navigate(context.Background(), "/")
	})
	assert.Nil(t, CollectorFromContext(context.Background()))
}
