// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package logging

import (
	"strings"
	"unicode/utf8"
)

// maxLoggedValue caps user supplied strings (chat content, query params)
// written into log fields.
const maxLoggedValue = 200

// SanitizeValue strips control characters that could forge log lines and
// truncates long values on a rune boundary.
func SanitizeValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return truncate(s, maxLoggedValue)
}

// SanitizeToken keeps only a short prefix of bearer tokens and API keys.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "[REDACTED]"
	}
	return token[:6] + "...[REDACTED]"
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
