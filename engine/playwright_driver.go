package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/use-agent/charscrape/models"
)

// PlaywrightDriver launches Firefox through playwright. It needs the
// playwright driver and browsers installed (`playwright install firefox`).
type PlaywrightDriver struct {
	Headless bool
}

func (d *PlaywrightDriver) Launch(ctx context.Context, binPath string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "playwright driver unavailable", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.Headless),
		Timeout:  playwright.Float(msUntil(ctx, 30*time.Second)),
	}
	if binPath != "" {
		launch.ExecutablePath = playwright.String(binPath)
	}
	browser, err := pw.Firefox.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch firefox", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}

	return &playwrightSession{pw: pw, browser: browser, page: page}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(msUntil(ctx, 60*time.Second)),
	})
	return wrapPlaywright(ctx, err)
}

func (s *playwrightSession) WaitFor(ctx context.Context, selector string) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(msUntil(ctx, 5*time.Second)),
	})
	return wrapPlaywright(ctx, err)
}

func (s *playwrightSession) Eval(ctx context.Context, expr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Evaluate(fmt.Sprintf("() => { %s }", expr))
	return err
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.page.Close(), s.browser.Close(), s.pw.Stop())
}

// msUntil converts the remaining time of ctx to playwright's millisecond
// timeouts, using fallback when ctx has no deadline.
func msUntil(ctx context.Context, fallback time.Duration) float64 {
	d := fallback
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return float64(d.Milliseconds())
}

// wrapPlaywright maps playwright's timeout to context.DeadlineExceeded so
// callers classify it like the other drivers.
func wrapPlaywright(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
