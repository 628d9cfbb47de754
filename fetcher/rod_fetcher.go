package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"arcdata/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// DefaultWaitTimeout bounds a page load when wiki.wait_timeout is unset
const DefaultWaitTimeout = 30 * time.Second

// requestIdle is how long the network must stay quiet before the page counts as loaded
const requestIdle = 500 * time.Millisecond

// Linux Chrome/Chromium paths tried before rod downloads its own build
var browserPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// RodFetcher implements the Fetcher interface using rod (headless browser)
type RodFetcher struct {
	browser     *rod.Browser
	waitTimeout time.Duration
	log         *zap.Logger
}

// NewRodFetcher launches a headless browser and connects to it.
// Callers own the browser and must Close the fetcher.
func NewRodFetcher(cfg config.WikiConfig, log *zap.Logger) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")

	if dir := resolveUserDataDir(cfg.UserDataDir, log); dir != "" {
		l = l.UserDataDir(dir)
	}
	if bin := findBrowserBin(cfg.BrowserBin, browserPaths); bin != "" {
		log.Debug("Using system browser", zap.String("bin", bin))
		l = l.Bin(bin)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := connectOrKill(browser.Connect, l.Kill); err != nil {
		return nil, err
	}

	return &RodFetcher{
		browser:     browser,
		waitTimeout: waitTimeoutOrDefault(cfg.WaitTimeout),
		log:         log,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface. The page it opens is closed on
// every return path.
func (rf *RodFetcher) Fetch(ctx context.Context, url, waitSelector string) (string, error) {
	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			rf.log.Warn("Failed to close page", zap.Error(err))
		}
	}()

	p := page.Context(ctx).Timeout(rf.waitTimeout)

	rf.log.Info("Loading page", zap.String("url", url))
	waitIdle := p.WaitRequestIdle(requestIdle, nil, nil, nil)

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to wait for page load: %w", err)
	}
	waitIdle()

	if waitSelector != "" {
		if _, err := p.Element(waitSelector); err != nil {
			return "", fmt.Errorf("%w: %q on %s: %v", ErrSelectorNotFound, waitSelector, url, err)
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// connectOrKill connects to a launched browser. The browser process is
// killed when the connection fails, since nothing else would reap it.
func connectOrKill(connect func() error, kill func()) error {
	if err := connect(); err != nil {
		kill()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	return nil
}

func waitTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultWaitTimeout
	}
	return d
}

// resolveUserDataDir picks the browser profile directory: the configured one,
// then $BOT_DATA_DIR. An empty result lets rod use a throwaway profile.
func resolveUserDataDir(configured string, log *zap.Logger) string {
	dir := configured
	if dir == "" {
		dir = os.Getenv("BOT_DATA_DIR")
	}
	if dir == "" {
		return ""
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn("Failed to create browser data directory, using a temporary profile", zap.String("dir", dir), zap.Error(err))
		return ""
	}
	return dir
}

// findBrowserBin returns the configured binary, or the first candidate that exists
func findBrowserBin(configured string, candidates []string) string {
	if configured != "" {
		return configured
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
