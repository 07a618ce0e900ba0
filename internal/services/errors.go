package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDecode marks unreadable or corrupt audio. Files carrying it are
	// quarantined; the run continues.
	ErrDecode = errors.New("decode error")
	// ErrStyleLookup marks a missing bucket/category style definition.
	ErrStyleLookup = errors.New("style lookup miss")
	// ErrFileSystem marks a per-file filesystem failure (permissions, disk
	// space, unrelated target collision).
	ErrFileSystem = errors.New("filesystem error")
	// ErrCacheCorruption marks an unreadable feature cache store.
	ErrCacheCorruption = errors.New("cache corruption")
	// ErrUndoMismatch marks a destination whose identity no longer matches
	// the audit record taken at move time.
	ErrUndoMismatch = errors.New("undo mismatch")
	// ErrNoEligibleRun marks an undo or repair invocation with no qualifying
	// prior run.
	ErrNoEligibleRun = errors.New("no eligible run")
	// ErrValidation marks invalid input or configuration detected at setup.
	ErrValidation = errors.New("validation error")
	// ErrLocked marks a hub whose run lock is already held.
	ErrLocked = errors.New("hub locked")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFileSystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the whole run rather than a
// single file's action. Only setup-level failures qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrLocked)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
