package services

import "fmt"

// OutOfSyncError reports that the assistant provider accepted a change but the
// local record could not be written. The remote assistant exists under
// AssistantID; retrying the sync with that id updates it in place.
type OutOfSyncError struct {
	AssistantID string
	Err         error
}

func (e *OutOfSyncError) Error() string {
	return fmt.Sprintf("assistant %s saved remotely but not locally: %v", e.AssistantID, e.Err)
}

func (e *OutOfSyncError) Unwrap() error { return e.Err }
