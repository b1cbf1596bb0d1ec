package viewer

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoSource is returned by SaveImage before any file was selected.
var ErrNoSource = errors.New("no source file selected")

// FileAccessError reports that a selected file could not be read or watched.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("accessing %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// TransientAccessError reports that the watched file stayed unreadable for
// the whole retry window after a change notification.
type TransientAccessError struct {
	Path    string
	Elapsed time.Duration
	Err     error
}

func (e *TransientAccessError) Error() string {
	return fmt.Sprintf("%s unreadable after %s: %v", e.Path, e.Elapsed, e.Err)
}

func (e *TransientAccessError) Unwrap() error { return e.Err }

// IOError reports that a rendered image could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("saving image to %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
