package timeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewClipID returns a collision-resistant id for a timeline clip.
// Format: clip-<unix_ms>-<random>. Uniqueness within a session is all that
// is required; cryptographic guarantees are not.
func NewClipID() string {
	return newID("clip")
}

// NewTrackID returns an id for a track.
func NewTrackID() string {
	return newID("track")
}

func newID(prefix string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}
