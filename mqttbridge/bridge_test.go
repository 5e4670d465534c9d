package mqttbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionIDFromTopic(t *testing.T) {
	assert.Equal(t, "walker-1", sessionIDFromTopic("indoornav/walker-1/mag"))
	assert.Equal(t, "walker-1", sessionIDFromTopic("indoornav/walker-1/wifi"))
	assert.Equal(t, "", sessionIDFromTopic("indoornav/mag"))
	assert.Equal(t, "", sessionIDFromTopic("mag"))
}

func TestConfigPrefixDefaultsWhenEmpty(t *testing.T) {
	assert.Equal(t, "indoornav", Config{}.prefix())
	assert.Equal(t, "custom", Config{TopicPrefix: "custom"}.prefix())
}
