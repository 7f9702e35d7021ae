package events

import "time"

type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	Data      any
}

// Payload returns the event data as T.
func Payload[T any](e Event) (T, bool) {
	switch v := e.Data.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}
