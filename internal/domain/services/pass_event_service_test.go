package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitor-pass-service/internal/domain/models"
)

func TestPassEventPayload(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewPassEventService(publisher, "").(*PassEventService)
	svc.Now = func() time.Time { return time.UnixMilli(1714550400000) }

	pass := &models.AccessPass{VisitorName: "Ana", Status: models.PassStatusActive, Notifications: true, ResidentID: 3}
	pass.ID = 9
	pass.ApplyValidity(models.UsageLimitValidity{Limit: 1})

	svc.Publish(context.Background(), PassEventCreated, pass)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, []string{"access_pass/events"}, publisher.topics)
	ev := publisher.events[0]
	assert.Equal(t, PassEventCreated, ev.Type)
	assert.Equal(t, uint(9), ev.PassID)
	assert.Equal(t, uint(3), ev.ResidentID)
	assert.True(t, ev.Notifications)
	assert.Equal(t, models.AccessTypeUsageLimit, ev.AccessType)
	assert.Equal(t, int64(1714550400000), ev.Timestamp)
	assert.NotEmpty(t, ev.EventID)
}

func TestPassEventNilPublisher(t *testing.T) {
	svc := NewPassEventService(nil, "gate")
	assert.NotPanics(t, func() {
		svc.Publish(context.Background(), PassEventCreated, &models.AccessPass{})
	})
}
