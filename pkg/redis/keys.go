package redis

import "fmt"

// Key construction helpers for sky agent data

// SkyFactorKey returns the key for atmospheric factor samples (sorted set, score = timestamp ms)
// Pattern: sky:factors:{location}
func SkyFactorKey(location string) string {
	return fmt.Sprintf("sky:factors:%s", location)
}

// SkyMetaKey returns the key for per-factor provenance of the latest sample (hash)
// Pattern: meta:sky:{location}
func SkyMetaKey(location string) string {
	return fmt.Sprintf("meta:sky:%s", location)
}
