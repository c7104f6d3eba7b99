package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func parseInt(r *http.Request, key string) (int, error) {
	return atoi(key, r.URL.Query().Get(key))
}

func atoi(key, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, s, err)
	}
	return n, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
