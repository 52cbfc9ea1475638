package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/Yasuno-5555/investidabh/internal/adapter/proxy"
	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrNoDocument is returned when navigation never produced a usable page.
var ErrNoDocument = errors.New("navigation produced no usable document")

const (
	captureTimeout    = 20 * time.Second
	screenshotQuality = 100 // 100 selects lossless PNG output
	chromeErrorPrefix = "chrome-error://"
)

// UserAgentSource hands out the user agent for each browser session.
type UserAgentSource interface {
	UserAgent() string
}

// ChromedpFetcher loads pages in a headless browser and captures HTML plus a full-page screenshot.
type ChromedpFetcher struct {
	agents     UserAgentSource
	navTimeout time.Duration
	logger     *zap.Logger
}

// NewChromedpFetcher creates a new fetch engine implementation using chromedp.
func NewChromedpFetcher(agents UserAgentSource, navTimeout time.Duration, logger *zap.Logger) *ChromedpFetcher {
	return &ChromedpFetcher{
		agents:     agents,
		navTimeout: navTimeout,
		logger:     logger.Named("fetcher"),
	}
}

// allocatorOptions builds launch flags. The proxy is bound at launch, so every fetch gets its own browser.
func (f *ChromedpFetcher) allocatorOptions(proxyURL string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(f.agents.UserAgent()),
	)
	if server := proxy.ChromeProxy(proxyURL); server != "" {
		opts = append(opts,
			chromedp.ProxyServer(server),
			chromedp.Flag("host-resolver-rules", proxy.ChromeResolverRules(proxyURL)),
		)
	}
	return opts
}

// Fetch loads url, through proxyURL when it is non-empty, and returns the captured page.
// A navigation timeout is logged and capture is still attempted.
func (f *ChromedpFetcher) Fetch(ctx context.Context, taskID, url, proxyURL string) (*entity.Capture, error) {
	log := f.logger.With(zap.String("task_id", taskID), zap.String("target", url))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions(proxyURL)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	defer cancelBrowser()

	// Start the browser before any deadline applies, so launch time does not eat the navigation budget.
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	var status atomic.Int64
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	startTime := time.Now()
	navCtx, cancelNav := context.WithTimeout(browserCtx, f.navTimeout)
	navErr := chromedp.Run(navCtx, chromedp.Navigate(url))
	cancelNav()
	if navErr != nil {
		log.Warn("navigation did not finish, capturing partial document",
			zap.Duration("elapsed", time.Since(startTime)), zap.Error(navErr))
	}

	var html, location string
	captureCtx, cancelCapture := context.WithTimeout(browserCtx, captureTimeout)
	err := chromedp.Run(captureCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	cancelCapture()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocument, errors.Join(navErr, err))
	}
	if strings.HasPrefix(location, chromeErrorPrefix) {
		return nil, fmt.Errorf("%w: browser error page for %s: %v", ErrNoDocument, url, navErr)
	}

	title, usable := inspectDocument(html)
	if !usable {
		return nil, fmt.Errorf("%w: empty markup for %s", ErrNoDocument, url)
	}

	var screenshot []byte
	shotCtx, cancelShot := context.WithTimeout(browserCtx, captureTimeout)
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&screenshot, screenshotQuality)); err != nil {
		log.Warn("screenshot failed, keeping HTML only", zap.Error(err))
		screenshot = nil
	}
	cancelShot()

	capture := &entity.Capture{
		HTML:       []byte(html),
		Screenshot: screenshot,
		StatusCode: int(status.Load()),
		Title:      title,
	}
	log.Info("page captured",
		zap.Int("status_code", capture.StatusCode),
		zap.String("title", title),
		zap.Int("html_bytes", len(capture.HTML)),
		zap.Int("screenshot_bytes", len(screenshot)),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return capture, nil
}

// inspectDocument extracts the page title and reports whether the markup carries any content.
func inspectDocument(html string) (string, bool) {
	if strings.TrimSpace(html) == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body")
	hasContent := body.Children().Length() > 0 || strings.TrimSpace(body.Text()) != ""
	return title, hasContent || title != ""
}
