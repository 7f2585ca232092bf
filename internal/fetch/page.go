package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PageOptions configures PageText.
type PageOptions struct {
	Fetch          *Options
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         *zap.Logger
}

// PageText fetches a page and returns its main text using site-specific selectors.
// With UseBrowser set, pages whose HTTP text is shorter than MinContentLength are
// rendered in a headless browser and extracted again.
func PageText(ctx context.Context, urlStr string, opts PageOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	site := DetectSite(urlStr)

	res, err := URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", err
	}
	text, err := ExtractMainText(res.HTML, SiteContentSelectors(site), SiteNoiseSelectors(site)...)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}

	if !opts.UseBrowser || !ShouldUseBrowser(text) {
		return text, nil
	}

	timeout := opts.BrowserTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	html, err := WithBrowser(ctx, urlStr, timeout, logger)
	if err != nil {
		// The HTTP text is still usable
		logger.Debug("browser fallback failed", zap.String("url", urlStr), zap.Error(err))
		return text, nil
	}
	rendered, err := ExtractMainText(html, SiteContentSelectors(site), SiteNoiseSelectors(site)...)
	if err != nil || len(rendered) < len(text) {
		return text, nil
	}
	return rendered, nil
}
