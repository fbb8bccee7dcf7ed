package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeMessage folds runs of whitespace into single spaces and caps the
// result at maxRunes characters. A non-positive maxRunes disables the cap.
func SanitizeMessage(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	written := 0
	for _, r := range input {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = written > 0
			continue
		}
		if maxRunes > 0 && written >= maxRunes {
			break
		}
		if pendingSpace {
			if maxRunes > 0 && written+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			written++
			pendingSpace = false
		}
		b.WriteRune(r)
		written++
	}
	return b.String()
}
