package search

import "net/url"

// Supported text search engines.
const (
	EngineGoogle = "google"
	EngineBing   = "bing"
)

const (
	googleSearchBase = "https://www.google.com/search?q="
	bingSearchBase   = "https://www.bing.com/search?q="

	// Landing pages used when an image upload cannot produce a direct
	// results URL.
	googleLensURL       = "https://lens.google.com/"
	bingVisualSearchURL = "https://www.bing.com/visualsearch"
)

// TextSearchURL builds the results-page URL for a query. Unknown engine
// names fall back to Google.
func TextSearchURL(engine, query string) string {
	escaped := url.QueryEscape(query)
	switch engine {
	case EngineBing:
		return bingSearchBase + escaped
	default:
		return googleSearchBase + escaped
	}
}

// ImageSearchLanding returns the engine's reverse-image search landing
// page, used as a fallback when direct upload fails.
func ImageSearchLanding(engine string) string {
	switch engine {
	case EngineBing:
		return bingVisualSearchURL
	default:
		return googleLensURL
	}
}
