package adapter

import (
	"strconv"
	"strings"
	"time"
)

// Boards double-encode description HTML; only these five entities are
// decoded, never a general HTML unescape.
var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&amp;", "&",
)

func decodeEntities(text string) string {
	return entityReplacer.Replace(text)
}

// displayName turns a board slug into a display name by upper-casing the
// first character only. The remainder is left as the board has it.
func displayName(slug string) string {
	if slug == "" {
		return slug
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

// logoURL guesses a company logo location from the board slug. The URL is a
// heuristic and is not verified to exist.
func logoURL(slug string) string {
	return "https://logo.clearbit.com/" + strings.ToLower(slug) + ".com"
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
