package utils

import (
	"strings"
)

var replyPrefixes = []string{
	"caption:",
	"translation:",
	"arabic translation:",
	"english caption:",
}

// CleanModelReply reduces a chat model reply to its first meaningful line.
// Code fences, surrounding quotes and a leading label such as "Caption:" are removed.
func CleanModelReply(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	line := ""
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	for _, p := range replyPrefixes {
		if len(line) >= len(p) && strings.EqualFold(line[:len(p)], p) {
			line = strings.TrimSpace(line[len(p):])
			break
		}
	}

	line = strings.Trim(line, "\"'“”«»")
	return CollapseSpaces(line)
}
