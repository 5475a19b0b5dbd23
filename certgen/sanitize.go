package certgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SanitizeIdentifier turns a raw identifier cell into an output file stem.
// Every "+" is removed and surrounding whitespace trimmed.
func SanitizeIdentifier(value any) string {
	return strings.TrimSpace(strings.ReplaceAll(Stringify(value), "+", ""))
}

// DisplayName renders the participant name written into the placeholder.
// Blank names become a single space so the run never ends up empty.
// Letters following an apostrophe start a new word ("o'neil" -> "O'Neil").
func DisplayName(value any) string {
	name := strings.TrimSpace(Stringify(value))
	if name == "" {
		return " "
	}
	caser := cases.Title(language.Und)
	return strings.Join(splitApostrophes(name, func(part string) string {
		return caser.String(part)
	}), "")
}

// splitApostrophes applies fn to the text between apostrophes and keeps the
// apostrophes themselves as separate parts.
func splitApostrophes(s string, fn func(string) string) []string {
	var parts []string
	start := 0
	for i, r := range s {
		if r != '\'' && r != '\u2019' {
			continue
		}
		parts = append(parts, fn(s[start:i]), string(r))
		start = i + utf8.RuneLen(r)
	}
	return append(parts, fn(s[start:]))
}

// IsBlank reports whether an identifier cell should be skipped.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case float32:
		return v == 0
	}
	return false
}

// Stringify coerces a cell value to text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
