package engine

import (
	"context"

	"github.com/chromedp/chromedp"

	"github.com/use-agent/charscrape/models"
)

// ChromedpDriver launches Chromium-family browsers (Edge by default) over the
// DevTools protocol with chromedp.
type ChromedpDriver struct {
	Headless  bool
	NoSandbox bool
}

func (d *ChromedpDriver) allocatorOptions(binPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.Headless),
		chromedp.Flag("no-sandbox", d.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.UserAgent(userAgent),
	)
	if binPath != "" {
		opts = append(opts, chromedp.ExecPath(binPath))
	}
	return opts
}

// Launch starts the browser. The browser lives until the session is closed,
// independent of ctx; ctx only bounds the startup.
func (d *ChromedpDriver) Launch(ctx context.Context, binPath string) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions(binPath)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, models.NewScrapeError(models.ErrCodeTimeout, "browser startup", ctx.Err())
	}

	return &chromedpSession{
		ctx:    browserCtx,
		cancel: func() { browserCancel(); allocCancel() },
	}, nil
}

type chromedpSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by the deadline and
// cancellation of ctx.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		runCtx, dcancel = context.WithDeadline(runCtx, deadline)
		defer dcancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromedpSession) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromedpSession) Eval(ctx context.Context, expr string) error {
	return s.run(ctx, chromedp.Evaluate(expr, nil))
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}
