// Package naming allocates collision-free storage names for retrieved documents.
package naming

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultBaseName is used when the URL path has no usable file name
	DefaultBaseName = "document.pdf"

	maxBaseNameLen = 100
	defaultExt     = ".pdf"
)

// Allocate returns a fresh storage name for rawURL. The name starts with a
// UUIDv7 (millisecond timestamp plus random bits) so concurrent callers, in
// this process or another, never produce the same name.
func Allocate(rawURL string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate name id: %w", err)
	}
	return id.String() + "-" + BaseName(rawURL), nil
}

// BaseName derives a filesystem and object-key safe name from the last
// segment of the URL path.
func BaseName(rawURL string) string {
	var p string
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	base := sanitize(path.Base(p))
	if base == "" || strings.Trim(base, ".") == "" {
		return DefaultBaseName
	}

	if len(base) > maxBaseNameLen {
		base = base[len(base)-maxBaseNameLen:]
		base = strings.TrimLeft(base, ".")
	}

	if path.Ext(base) == "" {
		if len(base)+len(defaultExt) > maxBaseNameLen {
			base = base[:maxBaseNameLen-len(defaultExt)]
		}
		base += defaultExt
	}

	return base
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
