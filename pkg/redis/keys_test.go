package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "sky:factors:home", SkyFactorKey("home"))
	assert.Equal(t, "meta:sky:living_room", SkyMetaKey("living_room"))
}
