package httputil

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseTimeRange parses optional RFC3339 query parameters fromKey and toKey into UTC
// times. Missing parameters yield nil. Both boundaries are inclusive and from must not
// be after to.
func ParseTimeRange(c *gin.Context, fromKey, toKey string) (from, to *time.Time, err error) {
	from, err = parseRFC3339Query(c, fromKey)
	if err != nil {
		return nil, nil, err
	}

	to, err = parseRFC3339Query(c, toKey)
	if err != nil {
		return nil, nil, err
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%s must be before or equal to %s", fromKey, toKey)
	}

	return from, to, nil
}

func parseRFC3339Query(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", key)
	}
	utc := parsed.UTC()
	return &utc, nil
}
