package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "automation/context/atmosphere/balcony", AtmosphereTopic("balcony"))
	assert.Equal(t, "automation/context/sky/balcony", SkyTopic("balcony"))
	assert.Equal(t, "automation/status/sky-agent", ServiceStatusTopic("sky-agent"))
}

func TestLocationFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"automation/context/atmosphere/balcony", "balcony", true},
		{"automation/context/atmosphere/", "", false},
		{"automation/context/atmosphere", "", false},
		{"automation/context/atmosphere/a/b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := LocationFromTopic(tt.topic)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
