package wiki

import (
	"net/url"
	"strings"
)

const articlePrefix = "/wiki/"

// escapeTitle turns a title into the path segment Wikipedia uses for it.
// Slashes are kept literal, as in "AC/DC".
func escapeTitle(title string) string {
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	parts := strings.Split(title, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ArticleURL returns the canonical article URL for title under baseURL.
func ArticleURL(baseURL, title string) string {
	return strings.TrimRight(baseURL, "/") + articlePrefix + escapeTitle(title)
}

// TitleFromURL extracts the article title from an absolute URL or a /wiki/ href.
// It returns "" when the URL does not point at an article path.
func TitleFromURL(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	} else if unescaped, err := url.PathUnescape(raw); err == nil {
		path = unescaped
	}
	idx := strings.Index(path, articlePrefix)
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(path[idx+len(articlePrefix):], "_", " ")
}

// NormalizeTitle folds a title for loose comparison: underscores become spaces,
// runs of whitespace collapse, and case is ignored.
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// SameTitle reports whether two titles name the same article under loose comparison.
func SameTitle(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}
