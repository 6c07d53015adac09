package engine

import (
	"strings"

	"github.com/tfs-go/tfs/errors"
)

// ParsePath validates and splits an absolute path into its component
// sequence. "/" alone parses to an empty sequence, valid only for listing.
func ParsePath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, errors.ErrInvalidPath
	}
	if path == "/" {
		return []string{}, nil
	}
	if strings.HasSuffix(path, "/") {
		return nil, errors.ErrInvalidPath
	}

	parts := strings.Split(path[1:], "/")
	for _, p := range parts {
		if p == "" {
			return nil, errors.ErrInvalidPath
		}
		if strings.ContainsAny(p, " \t\n\r") {
			return nil, errors.ErrInvalidPath
		}
	}
	return parts, nil
}
