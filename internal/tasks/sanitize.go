package tasks

import (
	"encoding/json"
	"html"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate   = validator.New()
	richPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()

	tagExprRe     = regexp.MustCompile(`^\{+.+\}$`)
	octetRe       = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	whitespaceRe  = regexp.MustCompile(`[\r\n\t ]+`)
	keyRe         = regexp.MustCompile(`[^a-z0-9_\-]`)
)

// isTagExpr reports whether s is a placeholder expression such as {{billing email}}.
func isTagExpr(s string) bool {
	return tagExprRe.MatchString(s)
}

// sanitizeText reduces v to a single line of plain text: markup and
// percent-encoded octets are removed and whitespace runs collapse to one
// space. It repeats until the value is stable.
func sanitizeText(v any) string {
	s := strings.ToValidUTF8(toString(v), "")
	for {
		next := stripText(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripText(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(textPolicy.Sanitize(s))
	}
	s = octetRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// sanitizeHTML keeps the markup allowed in post content.
func sanitizeHTML(v any) string {
	return richPolicy.Sanitize(toString(v))
}

func sanitizeEmail(v any) string {
	s := strings.TrimSpace(toString(v))
	if s == "" || validate.Var(s, "required,email") != nil {
		return ""
	}
	return s
}

// sanitizeKey lowercases v and keeps only [a-z0-9_-].
func sanitizeKey(v any) string {
	return keyRe.ReplaceAllString(strings.ToLower(toString(v)), "")
}

// sanitizeURL returns an absolute http(s) URL or "". A missing scheme is
// assumed to be http.
func sanitizeURL(v any) string {
	s := strings.Join(strings.Fields(toString(v)), "")
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return ""
	}
	if validate.Var(s, "url") != nil {
		return ""
	}
	return s
}

func escapeAttr(s string) string {
	return html.EscapeString(s)
}

// positiveInt coerces v to an integer greater than zero.
func positiveInt(v any) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// toString renders scalar values; lists and maps become "".
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return ""
}

// toList accepts the list shapes produced by JSON decoding and by raw().
func toList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return nil
}
