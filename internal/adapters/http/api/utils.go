package api

import (
	"net/url"
	"strconv"
	"strings"
)

// intParam reads an integer query parameter, returning def when absent.
func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
