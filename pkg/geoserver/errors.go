package geoserver

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Delete when GeoServer has no layer group with the given name.
var ErrNotFound = errors.New("layer group not found")

func IsErrNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// SyncError means GeoServer rejected or could not service a layer group request.
// StatusCode is zero when no response was received.
type SyncError struct {
	Group      string
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (err *SyncError) Error() string {
	msg := fmt.Sprintf("layer group %s: %s %s", err.Group, err.Method, err.URL)
	if err.StatusCode != 0 {
		msg = fmt.Sprintf("%s: server responded with status %d", msg, err.StatusCode)
		if len(err.Body) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, err.Body)
		}
	}
	if err.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Err)
	}
	return msg
}

func (err *SyncError) Unwrap() error {
	return err.Err
}
