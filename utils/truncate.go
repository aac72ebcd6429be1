package utils

const (
	TruncateMax    = 25
	truncatePrefix = 10
	truncateSuffix = 12
)

// Truncate shortens s to prefix + "..." + suffix when it is longer than
// TruncateMax. Empty strings and the literal "undefined" report ok=false so
// the caller can substitute its own fallback.
func Truncate(s string) (out string, ok bool) {
	if s == "" || s == "undefined" {
		return "", false
	}
	r := []rune(s)
	if len(r) <= TruncateMax {
		return s, true
	}
	return string(r[:truncatePrefix]) + "..." + string(r[len(r)-truncateSuffix:]), true
}
