package render

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/exportspec"
	"github.com/matzehuels/svgexport/pkg/geometry"
	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
	"github.com/matzehuels/svgexport/pkg/observability"
)

var defaultBrowserArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-gpu",
	"--font-render-hinting=none",
}

// Browser renders jobs in headless Chromium. The browser is started on the
// first Render call and shared by all later ones; each job gets its own page.
type Browser struct {
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewBrowser returns a browser engine. No process is started until the first
// Render.
func NewBrowser(opts Options) *Browser {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Browser{opts: opts, logger: logger.WithPrefix(EngineBrowser)}
}

// Name returns "browser".
func (b *Browser) Name() string { return EngineBrowser }

// Start launches playwright and Chromium if they are not running yet.
func (b *Browser) Start(ctx context.Context) error {
	_, err := b.ensure(ctx)
	return err
}

func (b *Browser) ensure(ctx context.Context) (playwright.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	start := time.Now()
	browser, err := b.launch(ctx)
	observability.Export().OnBrowserStart(ctx, EngineBrowser, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("chromium started", "version", browser.Version(), "elapsed", time.Since(start))
	b.browser = browser
	return browser, nil
}

func (b *Browser) launch(ctx context.Context) (playwright.Browser, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  b.logger.GetLevel() <= log.DebugLevel,
	}
	if b.opts.Install {
		err := retry(ctx, installAttempts, installDelay, func() error {
			if err := playwright.Install(runOpts); err != nil {
				b.logger.Warn("browser install failed", "err", err)
				return &transientError{err}
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "install playwright driver")
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "start playwright (run with --install to download it)")
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     append(append([]string(nil), defaultBrowserArgs...), b.opts.BrowserArgs...),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "launch chromium")
	}
	b.pw = pw
	return browser, nil
}

// Render loads j.Input in a fresh page and screenshots the requested region.
func (b *Browser) Render(ctx context.Context, j job.Job) (Output, error) {
	if _, err := os.Stat(j.Input); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "unable to load file: %s", j.Input)
	}
	browser, err := b.ensure(ctx)
	if err != nil {
		return Output{}, err
	}
	if err := checkContext(ctx); err != nil {
		return Output{}, err
	}

	page, err := browser.NewPage()
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeRenderFailed, err, "new page")
	}
	defer page.Close()

	timeout := b.opts.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		page.SetDefaultNavigationTimeout(float64(timeout.Milliseconds()))
		page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	}

	src, err := fileURL(j.Input)
	if err != nil {
		return Output{}, err
	}
	resp, err := page.Goto(src)
	if err != nil {
		return Output{}, navigationError(err, j.Input)
	}
	if resp != nil && !resp.Ok() {
		return Output{}, errors.New(errors.ErrCodeFileNotFound, "unable to load file: %s", j.Input)
	}

	natural, err := naturalBox(page)
	if err != nil {
		return Output{}, err
	}

	spec, ignored, err := exportspec.Resolve(natural.Box, j.Tokens, j.Output)
	if err != nil {
		return Output{}, err
	}
	if err := checkContext(ctx); err != nil {
		return Output{}, err
	}

	data, err := b.capture(page, natural, spec)
	if err != nil {
		return Output{}, err
	}
	return Output{Spec: spec, Natural: natural, Ignored: ignored, Data: data}, nil
}

func (b *Browser) capture(page playwright.Page, natural inspect.Natural, spec exportspec.Spec) ([]byte, error) {
	if css := spec.CSS(); css != "" {
		if _, err := page.Evaluate(injectCSSScript, css); err != nil {
			return nil, renderError(err, "inject css")
		}
	}

	clipX, clipY := spec.Clip(natural.Box)
	_, err := page.Evaluate(layoutScript, map[string]any{
		"kind":   string(natural.Kind),
		"width":  natural.Box.Width,
		"height": natural.Box.Height,
		"scale":  spec.Scale(),
		"clipX":  clipX,
		"clipY":  clipY,
	})
	if err != nil {
		return nil, renderError(err, "lay out svg")
	}

	content, err := page.Content()
	if err != nil {
		return nil, renderError(err, "serialize page")
	}
	html := fmt.Sprintf(wrapperHTML, max(clipX, 0), max(clipY, 0), spec.Width(), spec.Height(), content)

	if _, err := page.Goto("about:blank"); err != nil {
		return nil, renderError(err, "reset page")
	}
	if err := page.SetContent(html); err != nil {
		return nil, renderError(err, "load wrapper")
	}

	shot := playwright.LocatorScreenshotOptions{
		OmitBackground: playwright.Bool(true),
		Type:           playwright.ScreenshotTypePng,
	}
	if spec.Format() == exportspec.FormatJPEG {
		shot.Type = playwright.ScreenshotTypeJpeg
		shot.Quality = playwright.Int(spec.Quality())
	}
	data, err := page.Locator("#" + outputID).Screenshot(shot)
	if err != nil {
		return nil, renderError(err, "screenshot")
	}
	return data, nil
}

// Close stops Chromium and the playwright driver.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
		b.browser = nil
	}
	if b.pw != nil {
		errs = append(errs, b.pw.Stop())
		b.pw = nil
	}
	return stderrors.Join(errs...)
}

func naturalBox(page playwright.Page) (inspect.Natural, error) {
	v, err := page.Evaluate(naturalBoxScript)
	if err != nil {
		return inspect.Natural{}, renderError(err, "measure svg")
	}
	raw, ok := v.(string)
	if !ok {
		return inspect.Natural{}, errors.New(errors.ErrCodeRenderFailed, "measure svg: unexpected result %T", v)
	}
	var box struct {
		Kind inspect.Kind `json:"kind"`
		geometry.Box
	}
	if err := json.Unmarshal([]byte(raw), &box); err != nil {
		return inspect.Natural{}, errors.Wrap(errors.ErrCodeRenderFailed, err, "measure svg")
	}
	return inspect.Natural{Box: box.Box, Kind: box.Kind}, nil
}

// fileURL converts a local path to a file:// URL with every path segment
// percent-encoded.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func navigationError(err error, path string) error {
	if stderrors.Is(err, playwright.ErrTimeout) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "load %s", path)
	}
	return errors.Wrap(errors.ErrCodeNavigation, err, "unable to load file: %s", path)
}

func renderError(err error, step string) error {
	if stderrors.Is(err, playwright.ErrTimeout) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s", step)
	}
	return errors.Wrap(errors.ErrCodeRenderFailed, err, "%s", step)
}

// Ensure Browser implements Renderer.
var _ Renderer = (*Browser)(nil)
