package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginSessionKey returns the cache key holding a user's active login JTI.
func (r *CacheKeyStruct) LoginSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SessionEndTimeKey returns the cache key for an exam session's end time
// (Unix seconds). Used by the WebSocket countdown to avoid hitting Postgres
// on every tick.
func (r *CacheKeyStruct) SessionEndTimeKey(sessionID string) string {
	return fmt.Sprintf("session:%s:end_time", sessionID)
}

var CacheKey = NewCacheKeyStruct()
