package frontdesk

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultETAMinutes = 5

// EntityExtractor mines the agent's running text for a queue ticket and
// related facts. Extraction is regex-based and best-effort; keeping it
// behind this type lets the heuristics change without touching the
// reconciler.
type EntityExtractor struct {
	ticketRe *regexp.Regexp
	etaRe    *regexp.Regexp
	nameRe   *regexp.Regexp
	phoneRe  *regexp.Regexp
	sepRe    *regexp.Regexp
}

func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{
		ticketRe: regexp.MustCompile(`(?i)\b([A-D]-\d{2,4})\b`),
		etaRe:    regexp.MustCompile(`(?i)(\d+)\s*(menit|minutes?)`),
		nameRe:   regexp.MustCompile(`(?i)(?:Bapak/Ibu|Bapak|Ibu)\s+([A-Za-z]+)`),
		phoneRe:  regexp.MustCompile(`(\+?\d{2,4}[-\s]?\d{3,4}[-\s]?\d{3,4}[-\s]?\d{2,4}|\d{10,13})`),
		sepRe:    regexp.MustCompile(`[-\s]`),
	}
}

// Extract scans the agent's current full text. The ticket number gates
// everything: without it no other field is attempted. The phone number is
// looked up in prior user entries only, never in agent text. First match
// wins per field.
func (e *EntityExtractor) Extract(agentText string, userEntries []TranscriptEntry) (QueueTicket, bool) {
	ticketMatch := e.ticketRe.FindStringSubmatch(agentText)
	if ticketMatch == nil {
		return QueueTicket{}, false
	}

	ticket := QueueTicket{
		TicketNumber: strings.ToUpper(ticketMatch[1]),
		ETAMinutes:   defaultETAMinutes,
	}

	if etaMatch := e.etaRe.FindStringSubmatch(agentText); etaMatch != nil {
		if minutes, err := strconv.Atoi(etaMatch[1]); err == nil {
			ticket.ETAMinutes = minutes
		}
	}

	if nameMatch := e.nameRe.FindStringSubmatch(agentText); nameMatch != nil {
		ticket.CallerName = nameMatch[1]
	}

	for _, entry := range userEntries {
		if phoneMatch := e.phoneRe.FindStringSubmatch(entry.Text); phoneMatch != nil {
			ticket.PhoneNumber = e.sepRe.ReplaceAllString(phoneMatch[1], "")
			break
		}
	}

	return ticket, true
}
