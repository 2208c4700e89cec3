// Package browser runs the single Chromium session a registration run drives
// and adapts its page to form.Page.
package browser

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/regbot/config"
	"github.com/use-agent/regbot/models"
)

// Session owns one browser process and the one page all records share.
// Close is idempotent and must be called on every exit path.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *Page
	logger   *slog.Logger

	closeOnce sync.Once
}

// newLauncher configures the Chromium command line from cfg.
func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	// ── Window ───────────────────────────────────────────────────────
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	}
	return l
}

// Launch starts the browser and opens the page the run will use.
func Launch(cfg config.BrowserConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := newLauncher(cfg)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	logger.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewRunError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s := &Session{launcher: l, browser: b, logger: logger}
	page, err := s.openPage(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.page = page
	return s, nil
}

// openPage creates the tab, sizes its viewport and installs stealth and
// extra headers before the first navigation.
func (s *Session) openPage(cfg config.BrowserConfig) (*Page, error) {
	rp, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		if err := rp.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.WindowWidth,
			Height:            cfg.WindowHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			s.logger.Warn("setting viewport failed", "error", err)
		}
	}

	if cfg.Stealth {
		if _, err := rp.EvalOnNewDocument(stealth.JS); err != nil {
			s.logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if cfg.AcceptLanguage != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": cfg.AcceptLanguage}),
		}).Call(rp); err != nil {
			s.logger.Warn("setting extra headers failed", "error", err)
		}
	}
	return &Page{page: rp}, nil
}

// Page returns the session's page.
func (s *Session) Page() *Page { return s.page }

// Close shuts the browser down and removes its profile directory. It is safe
// to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("browser shutting down")
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("closing browser failed", "error", err)
			s.launcher.Kill()
		}
		s.launcher.Cleanup()
		s.logger.Info("browser shutdown complete")
	})
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
