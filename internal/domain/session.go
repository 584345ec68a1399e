package domain

import (
	"fmt"
	"hash/fnv"
	"time"
)

// SessionRecord tracks the last exchange for one conversation key.
type SessionRecord struct {
	Key          string    `json:"key"`
	LastQuestion string    `json:"last_question"`
	LastIntent   Intent    `json:"last_intent"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionKey derives a stable conversation key from the client address and
// user agent, formatted session_NNNN.
func SessionKey(ip, userAgent string) string {
	h := fnv.New32a()
	h.Write([]byte(ip))
	h.Write([]byte(userAgent))
	return fmt.Sprintf("session_%04d", h.Sum32()%10000)
}
