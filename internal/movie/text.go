package movie

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageResolver turns the poster references returned by the API into
// absolute CDN URLs.
type ImageResolver struct {
	Host        string // e.g. https://img.ophim.live
	UploadsPath string // e.g. /uploads/movies/
	Placeholder string
}

func (r ImageResolver) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return r.Placeholder
	case strings.HasPrefix(raw, "http"):
		return raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(r.Host, "/") + raw
	default:
		return strings.TrimRight(r.Host, "/") + "/" + strings.Trim(r.UploadsPath, "/") + "/" + raw
	}
}

// StripHTML returns the plain text content of an HTML fragment.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

// Truncate cuts s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// JoinOr joins the non-blank values with ", " or returns fallback.
func JoinOr(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var firstNumber = regexp.MustCompile(`\d+`)

// ParseTotal extracts the first integer run from a free-text episode total
// such as "24 Tập". It returns 0 when none is found.
func ParseTotal(hint string) int {
	m := firstNumber.FindString(hint)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
