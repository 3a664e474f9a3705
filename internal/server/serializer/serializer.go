// Package serializer renders the records exposed by the API.
package serializer

import (
	"path"
	"time"
)

// MediaPrefix is the URL prefix of the stored uploads.
const MediaPrefix = "/media"

// Media returns the URL of the given stored upload or an empty string.
func Media(name string) string {
	if name == "" {
		return ""
	}
	return path.Join(MediaPrefix, name)
}

func timestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
