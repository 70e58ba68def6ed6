package slug

import (
	"fmt"
	"strings"
	"unicode"
)

const maxLength = 80

// Make converts text to a lowercase URL-friendly id. Returns fallback when nothing survives.
func Make(text, fallback string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			dash = false
		case r == '-' || r == '_' || unicode.IsSpace(r) || r == '/' || r == '.':
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	result := strings.Trim(sb.String(), "-")
	if len(result) > maxLength {
		result = strings.TrimRight(result[:maxLength], "-")
	}
	if result == "" {
		return fallback
	}
	return result
}

// Unique returns base, or base-2, base-3, ... for the first candidate exists reports free.
func Unique(base string, exists func(candidate string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
