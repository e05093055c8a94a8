package scraper

import "net/url"

// parseURLOrNil parses rawURL for readability's base-URL resolution,
// returning nil (readability tolerates a nil base) if it does not parse.
func parseURLOrNil(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return u
}
