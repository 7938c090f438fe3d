package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the sky agent
const (
	// Atmospheric factor samples published by weather/air-quality bridges (input)
	TopicAtmosphereSamples = "automation/context/atmosphere/+"

	// Computed sky rings (output, retained)
	TopicSkyBase = "automation/context/sky"

	StatusOnline  = "online"
	StatusOffline = "offline"
)

// AtmosphereTopic constructs the sample topic for a location
// Pattern: automation/context/atmosphere/{location}
func AtmosphereTopic(location string) string {
	return fmt.Sprintf("automation/context/atmosphere/%s", location)
}

// SkyTopic constructs the sky ring topic for a location
// Pattern: automation/context/sky/{location}
func SkyTopic(location string) string {
	return fmt.Sprintf("%s/%s", TopicSkyBase, location)
}

// ServiceStatusTopic is where a service announces online/offline
// Pattern: automation/status/{service}
func ServiceStatusTopic(service string) string {
	return fmt.Sprintf("automation/status/%s", service)
}

// LocationFromTopic returns the last topic level, which every context topic
// uses for the location. It reports false for topics with fewer than four
// levels or an empty location.
func LocationFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[3] == "" {
		return "", false
	}
	return parts[3], true
}
