package server

import (
	"strconv"
	"strings"
)

func parseSessionPath(path string) (uint, string, bool) {
	const prefix = "/api/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return 0, "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return 0, "", false
	}
	sessionID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 1 {
		return uint(sessionID), "", true
	}
	if len(parts) == 2 {
		return uint(sessionID), parts[1], true
	}
	return 0, "", false
}

func parseWebsocketPath(path string) (uint, bool) {
	const prefix = "/ws/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return 0, false
	}
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	sessionID, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(sessionID), true
}
