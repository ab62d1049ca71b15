package transport

import "fmt"

// Default broker subjects.
const (
	// SubjectRequests is where every client publishes request envelopes.
	SubjectRequests = "biteme.requests"
	// SubjectEvents is the broadcast subject for order lifecycle events.
	SubjectEvents = "biteme.events"
)

// ClientSubject builds the private inbound subject for a client instance.
// Replies and targeted pushes for that client arrive here.
func ClientSubject(clientID string) string {
	return fmt.Sprintf("biteme.client.%s", clientID)
}
