package models

import "time"

// Instant is the datastore's second/nanosecond timestamp as it appears on
// the wire. Keeping it as an explicit value type isolates that shape from
// time.Time everywhere else.
type Instant struct {
	Seconds int64 `json:"_seconds"`
	Nanos   int32 `json:"_nanoseconds"`
}

func InstantFromTime(t time.Time) Instant {
	return Instant{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

func (i Instant) Time() time.Time {
	return time.Unix(i.Seconds, int64(i.Nanos))
}

// IsZero reports whether the instant carries no usable value. Imported
// codes are stored with a {0,0} placeholder, which must not be read as
// the epoch.
func (i Instant) IsZero() bool {
	return i.Seconds == 0 && i.Nanos == 0
}

// Code is one hotspot login credential, usable once.
type Code struct {
	Value  string   `json:"value"`
	Used   bool     `json:"used"`
	UsedAt *Instant `json:"usedAt,omitempty"`
}

// Ticket is a batch of codes created for one (user, profile) pair.
type Ticket struct {
	TicketID  string  `json:"ticketId"`
	CreatedAt Instant `json:"createdAt"`
	Codes     []Code  `json:"codes"`
}

// FullTicket is a Ticket enriched with the context reporting needs.
// Every code in Ticket.Codes belongs to this (user, profile) pair.
type FullTicket struct {
	User    string `json:"user"`
	Profile string `json:"profile"`
	Server  string `json:"server"`
	Uptime  string `json:"uptime"`
	Ticket  Ticket `json:"ticket"`
}
