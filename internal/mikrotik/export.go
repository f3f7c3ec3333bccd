// Package mikrotik renders and parses the /ip hotspot user command
// blocks the router's terminal works with.
package mikrotik

import (
	"fmt"
	"regexp"
	"strings"

	"arsys/backend/internal/models"
)

var nameRE = regexp.MustCompile(`\bname\s*=\s*"([^"]+)"`)

// ParseExport extracts every name="..." value from pasted export text,
// in first-occurrence order, duplicates removed. Everything else in the
// paste is ignored.
func ParseExport(text string) []string {
	matches := nameRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// AddScript renders the command block that recreates the ticket's codes
// as hotspot users on the router.
func AddScript(ft models.FullTicket) string {
	var b strings.Builder
	b.WriteString("/ip hotspot user\n")
	for _, code := range ft.Ticket.Codes {
		fmt.Fprintf(&b, "add name=\"%s\" server=\"%s\" profile=\"%s\" limit-uptime=\"%s\"\n",
			code.Value, ft.Server, ft.Profile, ft.Uptime)
	}
	return b.String()
}

// RemoveScript renders the command block that deletes the ticket's codes
// from the router.
func RemoveScript(ft models.FullTicket) string {
	var b strings.Builder
	b.WriteString("/ip hotspot user\n")
	for _, code := range ft.Ticket.Codes {
		fmt.Fprintf(&b, "remove [find where name=\"%s\"]\n", code.Value)
	}
	return b.String()
}
