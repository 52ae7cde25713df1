package vfs

import "fmt"

// EventKind classifies a change delivered to the change handler.
type EventKind int

const (
	KindCreated EventKind = iota
	KindModified
	KindRemoved
	// KindInvalidate means the content under the path can no longer be
	// assumed current and must be re-read.
	KindInvalidate
)

func (k EventKind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	case KindInvalidate:
		return "invalidate"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NativeEventKind is the native watch source's own event vocabulary. It is a
// superset of EventKind and must be translated before leaving this package.
type NativeEventKind int

const (
	NativeCreated NativeEventKind = iota
	NativeModified
	NativeRemoved
	NativeInvalidate
	// NativeUnknown is the sentinel for events the source could not
	// classify. It has no EventKind counterpart.
	NativeUnknown
)

func (k NativeEventKind) String() string {
	switch k {
	case NativeCreated:
		return "created"
	case NativeModified:
		return "modified"
	case NativeRemoved:
		return "removed"
	case NativeInvalidate:
		return "invalidate"
	case NativeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("NativeEventKind(%d)", int(k))
	}
}

// kindFromNative translates a known native kind. Passing NativeUnknown or a
// value outside the enumeration is a programming defect: callers filter
// NativeUnknown first, and nothing else exists in the vocabulary.
func kindFromNative(kind NativeEventKind) EventKind {
	switch kind {
	case NativeCreated:
		return KindCreated
	case NativeModified:
		return KindModified
	case NativeRemoved:
		return KindRemoved
	case NativeInvalidate:
		return KindInvalidate
	default:
		panic(fmt.Sprintf("unmapped native event kind %v", kind))
	}
}
