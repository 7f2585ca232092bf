package fetch

import (
	"net/url"
	"strings"
)

// Site is a coarse classification of a source page, used to pick selectors.
type Site string

const (
	SiteWikipedia Site = "wikipedia"
	SiteArxiv     Site = "arxiv"
	SiteGitHub    Site = "github"
	SiteGeneric   Site = "generic"
)

// DetectSite classifies a page URL by host.
func DetectSite(urlStr string) Site {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return SiteGeneric
	}
	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org"):
		return SiteWikipedia
	case host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org"):
		return SiteArxiv
	case host == "github.com":
		return SiteGitHub
	default:
		return SiteGeneric
	}
}

// SiteContentSelectors returns content selectors for a site, most specific first.
func SiteContentSelectors(site Site) []string {
	switch site {
	case SiteWikipedia:
		return []string{"#mw-content-text .mw-parser-output", "#mw-content-text", "#content"}
	case SiteArxiv:
		return []string{"blockquote.abstract", "#abs", "#content"}
	case SiteGitHub:
		return []string{"article.markdown-body", ".markdown-body", "main"}
	default:
		return ArticleSelectors()
	}
}

// SiteNoiseSelectors returns elements removed before extraction.
func SiteNoiseSelectors(site Site) []string {
	common := []string{
		".social-share",
		".share-buttons",
		".newsletter-signup",
		".related-posts",
		".comments",
		".cookie-consent",
		".gdpr-notice",
	}
	switch site {
	case SiteWikipedia:
		return append(common, ".mw-editsection", ".reference", ".navbox", "#toc", ".infobox")
	case SiteArxiv:
		return append(common, ".extra-services", ".submission-history")
	case SiteGitHub:
		return append(common, ".file-navigation", ".BorderGrid")
	default:
		return common
	}
}
