package domain

import "strings"

// Scope identifies the capacity pool a quota subdivides or a ticket
// line sells from: a whole capacity group, or one ticket option within
// it when Option is set.
type Scope struct {
	Group  string
	Option string
}

func GroupScope(group string) Scope {
	return Scope{Group: group}
}

func TicketScope(group, option string) Scope {
	return Scope{Group: group, Option: option}
}

// TicketLevel reports whether the scope names a specific ticket option.
func (s Scope) TicketLevel() bool {
	return s.Option != ""
}

// TicketID renders the scope in the ticket-line wire format.
func (s Scope) TicketID() string {
	if s.Option == "" {
		return s.Group
	}
	return s.Group + " | " + s.Option
}

// ParseTicketLine parses the "<group> | <option>" ticket identifier.
// The string is split on the first "|" with both sides trimmed; a
// string without the separator is a bare group with no ticket option.
func ParseTicketLine(ticketID string) (Scope, error) {
	group, option, found := strings.Cut(ticketID, "|")
	group = strings.TrimSpace(group)
	if group == "" {
		return Scope{}, ErrInvalidTicketLine
	}
	if !found {
		return GroupScope(group), nil
	}
	return Scope{Group: group, Option: strings.TrimSpace(option)}, nil
}

// TicketLine is one line of a reservation request.
type TicketLine struct {
	TicketID string
	Quantity int
}
