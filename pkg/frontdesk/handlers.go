package frontdesk

import (
	"fmt"
	"io"
)

// Factory functions for common handlers

// CreateTranscriptPrinter writes the latest transcript entry to w as it
// changes, marking partial entries.
func CreateTranscriptPrinter(w io.Writer) TranscriptHandler {
	return func(entries []TranscriptEntry) {
		if len(entries) == 0 {
			return
		}
		last := entries[len(entries)-1]
		marker := ""
		if !last.IsFinal {
			marker = " …"
		}
		fmt.Fprintf(w, "[%s] %s%s\n", last.Speaker, last.Text, marker)
	}
}

// CreateTicketPrinter writes an issued queue ticket to w.
func CreateTicketPrinter(w io.Writer) TicketHandler {
	return func(ticket QueueTicket) {
		fmt.Fprintf(w, "Queue ticket %s, about %d minutes", ticket.TicketNumber, ticket.ETAMinutes)
		if ticket.CallerName != "" {
			fmt.Fprintf(w, ", for %s", ticket.CallerName)
		}
		if ticket.PhoneNumber != "" {
			fmt.Fprintf(w, " (%s)", ticket.PhoneNumber)
		}
		fmt.Fprintln(w)
	}
}

// CreateLoggingTicketHandler logs issuance through the global logger.
func CreateLoggingTicketHandler() TicketHandler {
	return func(ticket QueueTicket) {
		GetGlobalLogger().LogTicketEvent(ticket)
	}
}
