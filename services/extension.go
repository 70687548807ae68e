package services

import (
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultExtension = "file"

// fileExtension picks the extension a stored blob gets: the one of the
// uploaded name, else the canonical one for the content type, else "file".
func fileExtension(originalName, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(originalName), "."); safeExtension(ext) {
		return ext
	}
	if ext := extensionForType(contentType); safeExtension(ext) {
		return ext
	}
	return defaultExtension
}

// extensionForType ignores parameters such as "; charset=utf-8".
func extensionForType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	m := mimetype.Lookup(mediaType)
	if m == nil {
		return ""
	}
	return strings.TrimPrefix(m.Extension(), ".")
}

func safeExtension(ext string) bool {
	if ext == "" || len(ext) > 16 {
		return false
	}
	for _, c := range ext {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// DownloadName is the name a file is served under: its id plus the stored extension.
func DownloadName(fileID int, storedName string) string {
	ext := defaultExtension
	if i := strings.LastIndexByte(storedName, '.'); i >= 0 && i < len(storedName)-1 {
		ext = storedName[i+1:]
	}
	return strconv.Itoa(fileID) + "." + ext
}
