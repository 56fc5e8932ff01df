package resizer

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrFilesFailed is returned by Run when files failed while KeepGoing was set.
var ErrFilesFailed = errors.New("some files failed")

// ErrNoTarget is returned when no target size can be chosen for an image.
var ErrNoTarget = errors.New("no target size available")

// Stage names the step at which processing of a file failed.
type Stage string

const (
	StageLoad     Stage = "load"
	StageClassify Stage = "classify"
	StageWrite    Stage = "write"
)

// FileError ties a processing failure to the file and stage it occurred in.
type FileError struct {
	Name  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
