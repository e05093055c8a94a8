package scraper

import "regexp"

// noiseSelectors is the curated set of CSS selectors removed before the
// readability pass runs. The set is kept here as data rather than scattered
// through the extraction code so it can be revised without touching
// extraction logic.
var noiseSelectors = []string{
	"nav", "header nav", "footer nav", ".navbar", ".nav-menu", "#nav",
	".site-header", ".site-footer", "footer",
	".author-bio", ".author-box", ".byline", ".author-info", ".post-author",
	".share-buttons", ".social-share", ".sharing", ".share-this", ".social-links",
	".related-posts", ".related-articles", ".read-more", ".recommended",
	".cookie-banner", ".cookie-consent", "#cookie-notice", ".gdpr-banner",
	".reading-time", ".read-time", ".estimated-reading-time",
	"#comments", ".comments-section", ".comment-list", ".disqus-thread",
	".newsletter-signup", ".subscribe-box", ".newsletter-cta",
	".advertisement", ".ad-container", ".ad-slot", "ins.adsbygoogle",
	".breadcrumbs", ".breadcrumb",
	".tags-list", ".post-tags",
	".popup", ".modal-overlay",
	"script", "style", "noscript", "iframe",
}

// postCleanPatterns strips residual metadata lines (byline, date stamps,
// reading-time indicators) that survive the DOM-level pre-clean because they
// were rendered as plain text inside the main content container.
var postCleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?mi)^\s*By\s+[A-Z][\w.\- ]{1,40}\s*$`),
	regexp.MustCompile(`(?mi)^\s*\d{1,2}\s+min(ute)?s?\s+read\s*$`),
	regexp.MustCompile(`(?mi)^\s*Published\s*(on)?\s*[:\-]?\s*.*$`),
	regexp.MustCompile(`(?mi)^\s*Updated\s*(on)?\s*[:\-]?\s*.*$`),
	regexp.MustCompile(`(?m)^\s*(Share|Tweet|Pin|Email)\s+this\s*$`),
}

func postClean(text string) string {
	for _, p := range postCleanPatterns {
		text = p.ReplaceAllString(text, "")
	}
	return text
}
