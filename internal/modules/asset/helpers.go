package asset

import (
	"crypto/rand"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ObjectKey builds "<folder>/<prefix>-<random><ext>" keeping the extension of filename.
// An empty prefix yields "<folder>/<random><ext>".
func ObjectKey(folder, prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" || len(ext) > 10 || !isSafeSegment(ext) {
		ext = ".bin"
	}
	name := randomString(12) + ext
	if prefix != "" {
		name = prefix + "-" + name
	}
	return strings.Trim(folder, "/") + "/" + name
}

// IndexedKey is ObjectKey with a numeric prefix.
func IndexedKey(folder string, index int, filename string) string {
	return ObjectKey(folder, strconv.Itoa(index), filename)
}

// withExt swaps the extension of key.
func withExt(key, ext string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ext
}

// detectContentType prefers the declared type and sniffs the payload otherwise.
func detectContentType(declared string, payload []byte) string {
	ct := strings.TrimSpace(declared)
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(payload).String()
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.ToLower(ct)
}

// LegacyKeyFromURL recovers "<folder>/<filename>" from the last two path segments of a
// public URL. Any layout with deeper nesting resolves to the wrong key.
func LegacyKeyFromURL(raw string) (string, bool) {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 {
		return "", false
	}
	folder, name := parts[len(parts)-2], parts[len(parts)-1]
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if !isSafeSegment(folder) || !isSafeSegment(name) || folder == "" || name == "" {
		return "", false
	}
	return folder + "/" + name, true
}

// isSafeSegment returns true when s contains only alphanumerics, hyphens,
// underscores, or dots.
func isSafeSegment(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return true
}

func randomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
	}
	for i := range buf {
		buf[i] = letters[int(buf[i])%len(letters)]
	}
	return string(buf)
}
