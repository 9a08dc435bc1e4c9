package cache

import "fmt"

// TranslationKey returns the cache key for a translation result, where hash
// identifies the (source system, model, target, SQL) tuple.
func TranslationKey(hash string) string {
	return fmt.Sprintf("dwporter:translate:%s", hash)
}

// RateLimitKey returns the fixed-window counter key for a client.
func RateLimitKey(client string) string {
	return fmt.Sprintf("dwporter:ratelimit:%s", client)
}
