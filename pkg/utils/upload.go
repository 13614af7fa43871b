package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadFilename builds a collision-free stored name for an uploaded file,
// keeping only the original extension: <unix-nano>-<uuid><ext>
func UploadFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
}

// AllowedExtension reports whether the file's extension is in the allow-list.
// Extensions in the list must include the leading dot.
func AllowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
