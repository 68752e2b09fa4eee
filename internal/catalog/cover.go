package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

const coverBaseURL = "https://covers.openlibrary.org/b/id"

const placeholderSVG = `<svg xmlns='http://www.w3.org/2000/svg' width='130' height='200'>` +
	`<rect width='100%' height='100%' fill='#f3f4f6'/>` +
	`<text x='50%' y='50%' text-anchor='middle' fill='#6b7280' font-size='14'>No cover</text>` +
	`</svg>`

// CoverURL derives the cover image URL for a cover id. Without an id it
// returns an inline SVG placeholder, never an empty string.
func CoverURL(coverID string, size CoverSize) string {
	coverID = strings.TrimSpace(coverID)
	if coverID == "" {
		return PlaceholderDataURI()
	}
	s, ok := ParseCoverSize(string(size))
	if !ok {
		s = CoverSmall
	}
	return fmt.Sprintf("%s/%s-%s.jpg", coverBaseURL, url.PathEscape(coverID), s)
}

func PlaceholderDataURI() string {
	return "data:image/svg+xml;utf8," + url.PathEscape(placeholderSVG)
}

// PlaceholderSVG is the raw placeholder image, served directly over HTTP.
func PlaceholderSVG() []byte {
	return []byte(placeholderSVG)
}

func (b Book) CoverURL() string {
	return CoverURL(string(b.CoverID), b.CoverSize)
}
