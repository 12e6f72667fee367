package importer

import (
	"errors"
	"fmt"
)

// ErrImport is matched by every *ImportError
var ErrImport = errors.New("import failed")

// ErrMalformedRecord is matched by every *MalformedRecordError
var ErrMalformedRecord = errors.New("malformed event record")

// ImportError reports a failed call to the event source
type ImportError struct {
	Batch    int // zero-based batch index
	GroupIDs int // number of group IDs in the failed batch
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed on batch %d (%d groups): %v", e.Batch, e.GroupIDs, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrImport) true for any ImportError
func (e *ImportError) Is(target error) bool {
	return target == ErrImport
}

// MalformedRecordError reports a raw event missing a field the pipeline needs
type MalformedRecordError struct {
	Index   int    // position of the record in the fetched list
	EventID string // empty when the record carries no id
	Field   string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	id := e.EventID
	if id == "" {
		id = "?"
	}
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}
	return fmt.Sprintf("malformed event record %d (id %s): %s %s", e.Index, id, e.Field, reason)
}

// Is makes errors.Is(err, ErrMalformedRecord) true for any MalformedRecordError
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
