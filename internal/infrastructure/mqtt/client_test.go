package mqtt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"visitor-pass-service/internal/infrastructure/config"
)

func TestPublishBeforeConnect(t *testing.T) {
	c := NewClient(&config.Config{
		MQTTBrokerURL: "tcp://127.0.0.1:1",
		MQTTClientID:  "visitor-pass-test",
		MQTTQoS:       7,
	})

	assert.Equal(t, byte(1), c.qos)
	assert.False(t, c.IsConnected())

	err := c.Publish("access_pass/events", map[string]string{"type": "pass.created"})
	assert.True(t, errors.Is(err, ErrNotConnected))

	assert.NotPanics(t, c.Disconnect)
}
