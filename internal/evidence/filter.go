package evidence

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/versus-cli/internal/textnorm"
)

// DefaultBlocklist holds low-signal domains: encyclopedias, aggregators and
// forums.
var DefaultBlocklist = []string{
	"wikipedia.org",
	"wikimedia.org",
	"fandom.com",
	"msn.com",
	"yahoo.com",
	"news.google.com",
	"reddit.com",
	"quora.com",
	"pinterest.com",
}

const minWordLen = 2

// hostnameFromURL returns the lowercased host of an http(s) URL, or "".
func hostnameFromURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parsed.Hostname()))
}

// blocked reports whether host equals or is a subdomain of a blocklist entry.
func blocked(host string, blocklist []string) bool {
	for _, d := range blocklist {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Overlap returns the share of query words found in text. Words are folded,
// letters only, longer than two runes.
func Overlap(query, text string) float64 {
	q := textnorm.WordSet(query, minWordLen)
	if len(q) == 0 {
		return 0
	}
	r := textnorm.WordSet(text, minWordLen)
	hits := 0
	for w := range q {
		if _, ok := r[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// Threshold is the minimum overlap for a query: near-total for short queries,
// 60% otherwise.
func Threshold(query string) float64 {
	if len(textnorm.WordSet(query, minWordLen)) <= 2 {
		return 0.99
	}
	return 0.6
}

// Relevant reports whether text is relevant enough to query.
func Relevant(query, text string) bool {
	if len(textnorm.WordSet(query, minWordLen)) == 0 {
		return false
	}
	return Overlap(query, text) >= Threshold(query)
}

var (
	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	markdownLink  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// clean flattens markdown images and links and collapses whitespace.
func clean(text string) string {
	text = markdownImage.ReplaceAllString(text, "")
	text = markdownLink.ReplaceAllString(text, "$1")
	return strings.Join(strings.Fields(text), " ")
}

// truncate caps text at limit runes, ending in "..." when cut.
func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := limit - 3
	if keep < 0 {
		keep = 0
	}
	return strings.TrimRight(string([]rune(text)[:keep]), " ") + "..."
}
