package docstore

import (
	"context"
	"strconv"
	"strings"

	"github.com/matheus3301/puthype/internal/bus"
)

// Snapshot is one delivery of a subscription: the full result set of the
// query at some point after a committed change, or the error that
// prevented reading it.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription delivers snapshots of a live query until it is closed or
// its context ends. C is closed when the subscription stops.
type Subscription struct {
	C      <-chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() { s.cancel() }

// Done is closed once the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Subscribe runs q against collection and redelivers the result whenever a
// committed write to the collection changes it. The first snapshot is
// always delivered; later ones only when the set of ids or versions moved.
func (s *Store) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	if _, _, err := q.build(collection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	// Register before the first read so no commit can slip between them.
	var events <-chan bus.Event
	unsubscribe := func() {}
	if s.bus != nil {
		events, unsubscribe = s.bus.Subscribe(bus.DocTopic(collection), 1)
	}

	go func() {
		defer close(sub.done)
		defer close(out)
		defer unsubscribe()

		coll := s.Collection(collection)
		last := ""
		first := true
		for {
			docs, err := coll.Query(ctx, q)
			if ctx.Err() != nil {
				return
			}
			var snap Snapshot
			send := false
			if err != nil {
				snap = Snapshot{Err: err}
				send = true
				last = ""
			} else if fp := fingerprint(docs); first || fp != last {
				snap = Snapshot{Docs: docs}
				send = true
				last = fp
			}
			first = false

			if send {
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-events:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func fingerprint(docs []Document) string {
	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(d.ID)
		sb.WriteByte('@')
		sb.WriteString(strconv.FormatInt(d.Version, 10))
		sb.WriteByte(';')
	}
	return sb.String()
}
