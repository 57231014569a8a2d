package bus

import (
	"strings"
	"time"
)

// Namespaces published on the bus.
const (
	DocNamespace    = "doc."
	AuthNamespace   = "auth."
	DaemonNamespace = "daemon."
)

// Auth event kinds.
const (
	KindSignedIn  = "auth.signed_in"
	KindSignedOut = "auth.signed_out"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// DocChange is the payload of a doc.<collection>.changed event.
type DocChange struct {
	Collection string
	IDs        []string
}

// AuthChange is the payload of auth.* events.
type AuthChange struct {
	UID       string
	SessionID string
}

// DocKind returns the event kind for a change in collection.
func DocKind(collection string) string {
	return DocNamespace + collection + ".changed"
}

// DocTopic returns the subscription namespace covering one collection.
func DocTopic(collection string) string {
	return DocNamespace + collection + "."
}

// Collection extracts the collection name from a doc.* kind, or "".
func (e Event) Collection() string {
	rest, ok := strings.CutPrefix(e.Kind, DocNamespace)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, ".")
	return name
}
