package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClientIP derives the client identity from proxy headers: the first
// X-Forwarded-For entry, then X-Real-IP, then "unknown".
func ClientIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// WaitMessage renders a user-facing "try again" hint. Windows of a minute
// or more are shown in minutes, rounded up.
func WaitMessage(d time.Duration) string {
	if d >= time.Minute {
		mins := int((d + time.Minute - 1) / time.Minute)
		if mins == 1 {
			return "Please wait 1 minute before trying again."
		}
		return fmt.Sprintf("Please wait %d minutes before trying again.", mins)
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if secs == 1 {
		return "Please wait 1 second before trying again."
	}
	return fmt.Sprintf("Please wait %d seconds before trying again.", secs)
}
