package patch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathNotAllowed       = errors.New("path not allowed")
	ErrUnsupportedOperation = errors.New("unsupported patch operation")
)

func ValidatePatchOperations(ops []Operation, allowedPaths []string) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationReplace, OperationRemove:
		default:
			return fmt.Errorf("operation %d: %w: %q", i, ErrUnsupportedOperation, op.Op)
		}
		if !PathAllowed(op.Path, allowedPaths) {
			return fmt.Errorf("operation %d: %w: %q", i, ErrPathNotAllowed, op.Path)
		}
	}
	return nil
}

// PathAllowed reports whether path equals one of the patterns segment by segment. A "*"
// segment matches any array index or key, "-" only the append position.
func PathAllowed(path string, allowedPaths []string) bool {
	segments := strings.Split(path, "/")
	for _, pattern := range allowedPaths {
		if matchSegments(segments, strings.Split(pattern, "/")) {
			return true
		}
	}
	return false
}

func matchSegments(path, pattern []string) bool {
	if len(path) != len(pattern) {
		return false
	}
	for i := range pattern {
		if pattern[i] == "*" && path[i] != "" && path[i] != "-" {
			continue
		}
		if pattern[i] != path[i] {
			return false
		}
	}
	return true
}
