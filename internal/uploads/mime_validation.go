package uploads

import (
	"net/http"
	"sort"
	"strings"
)

// mimeByExtension lists the accepted file types and the sniffed content types
// each extension may carry.
var mimeByExtension = map[string][]string{
	".pdf":  {"application/pdf"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// AllowedExtension reports whether ext (with leading dot) is an accepted document type.
func AllowedExtension(ext string) bool {
	_, ok := mimeByExtension[strings.ToLower(ext)]
	return ok
}

// AllowedExtensions returns the accepted extensions without dots, sorted.
func AllowedExtensions() []string {
	out := make([]string, 0, len(mimeByExtension))
	for ext := range mimeByExtension {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// sniffMimeType inspects the first bytes of the file.
func sniffMimeType(head []byte) string {
	mediaType := http.DetectContentType(head)
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func mimeMatchesExtension(ext, mediaType string) bool {
	for _, allowed := range mimeByExtension[strings.ToLower(ext)] {
		if allowed == mediaType {
			return true
		}
	}
	return false
}
