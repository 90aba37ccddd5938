package view

// Change describes what happened to the rows of a Model.
type Change uint8

const (
	// RowAdded is sent for every row that became visible.
	RowAdded Change = iota
	// RowInvalidated is sent when a row was recomputed in place.
	RowInvalidated
	// WindowReplaced is sent before the rows of a rebuild are announced.
	WindowReplaced
)

func (c Change) String() string {
	switch c {
	case RowAdded:
		return "row added"
	case RowInvalidated:
		return "row invalidated"
	case WindowReplaced:
		return "window replaced"
	}
	return "unknown"
}

// Notification is delivered synchronously from the operation that caused it.
// Sequence is -1 for WindowReplaced.
type Notification struct {
	Change   Change
	Sequence int
}

// Listener receives notifications. It must not modify the model.
type Listener func(Notification)

// Canceler is implemented by collaborators with outstanding lookups, such
// as symbol resolution. Pending lookups are cancelled on every rebuild since
// their rows are discarded.
type Canceler interface {
	CancelPending()
}
