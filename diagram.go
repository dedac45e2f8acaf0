package md2word

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-md2word/internal/assets"
	"github.com/alnah/go-md2word/internal/docxrender"
	"github.com/alnah/go-md2word/internal/fileutil"
	"github.com/alnah/go-md2word/internal/process"
)

// Diagram rendering defaults.
const (
	DefaultDiagramTimeout = 30 * time.Second
	DefaultMermaidScript  = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// Capture settings. Rasters are taken at twice the CSS size so they stay
// sharp when Word scales them.
const (
	viewportWidth     = 1200
	viewportHeight    = 800
	deviceScaleFactor = 2
	diagramSelector   = "#diagram"
)

// NopDiagramRenderer renders nothing; every diagram stays a code block.
type NopDiagramRenderer struct{}

// RenderDiagram always fails with ErrDiagramUnsupported.
func (NopDiagramRenderer) RenderDiagram(_ context.Context, lang, _ string) (*Raster, error) {
	return nil, fmt.Errorf("%w: %s", ErrDiagramUnsupported, lang)
}

// Close does nothing.
func (NopDiagramRenderer) Close() error { return nil }

// DiagramOption configures the browser diagram renderer.
type DiagramOption func(*rodDiagramRenderer)

// WithDiagramTimeout bounds the rendering of one diagram.
func WithDiagramTimeout(d time.Duration) DiagramOption {
	return func(r *rodDiagramRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMermaidScript sets the URL the mermaid library is loaded from.
func WithMermaidScript(url string) DiagramOption {
	return func(r *rodDiagramRenderer) {
		if url != "" {
			r.scriptURL = url
		}
	}
}

// WithDiagramLogger sets the logger. A nil logger is ignored.
func WithDiagramLogger(l *zap.Logger) DiagramOption {
	return func(r *rodDiagramRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// rodDiagramRenderer rasterizes mermaid diagrams in headless Chrome.
// The browser starts on the first diagram and is shared by concurrent calls.
type rodDiagramRenderer struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	page      *template.Template
	timeout   time.Duration
	scriptURL string
	logger    *zap.Logger
}

// NewRodDiagramRenderer returns a DiagramRenderer driving headless Chrome
// through go-rod. ROD_BROWSER_BIN selects a preinstalled browser; otherwise
// rod finds or downloads one when the first diagram is rendered.
func NewRodDiagramRenderer(opts ...DiagramOption) (DiagramRenderer, error) {
	src, err := assets.LoadTemplate(assets.MermaidTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading diagram template: %w", err)
	}
	page, err := template.New(assets.MermaidTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing diagram template: %w", err)
	}

	r := &rodDiagramRenderer{
		page:      page,
		timeout:   DefaultDiagramTimeout,
		scriptURL: DefaultMermaidScript,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodDiagramRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		process.KillTree(l.PID())
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.logger.Debug("browser started", zap.Int("pid", l.PID()))

	r.browser, r.launcher = b, l
	return b, nil
}

// RenderDiagram draws source in a page of its own and captures the diagram
// element as PNG.
func (r *rodDiagramRenderer) RenderDiagram(ctx context.Context, lang, source string) (*Raster, error) {
	if !docxrender.IsDiagram(lang) {
		return nil, fmt.Errorf("%w: %s", ErrDiagramUnsupported, lang)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err := r.page.Execute(&buf, struct {
		ScriptURL string
		Source    string
	}{r.scriptURL, source})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}

	path, cleanup, err := fileutil.WriteTempFile(buf.String(), "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	defer cleanup()

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	return r.capture(ctx, page.Context(ctx), path)
}

func (r *rodDiagramRenderer) capture(ctx context.Context, page *rod.Page, path string) (*Raster, error) {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: deviceScaleFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.Navigate("file://" + path); err != nil {
		return nil, r.pageError(ctx, ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, r.pageError(ctx, ErrPageLoad, err)
	}

	if err := page.Wait(rod.Eval(`() => window.diagramState !== "pending"`)); err != nil {
		return nil, r.pageError(ctx, ErrDiagramRender, err)
	}
	res, err := page.Eval(`() => String(window.diagramState)`)
	if err != nil {
		return nil, r.pageError(ctx, ErrDiagramRender, err)
	}
	if state := res.Value.Str(); state != "done" {
		return nil, fmt.Errorf("%w: %s", ErrDiagramRender, strings.TrimPrefix(state, "error: "))
	}

	el, err := page.Element(diagramSelector)
	if err != nil {
		return nil, r.pageError(ctx, ErrDiagramRender, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, r.pageError(ctx, ErrDiagramRender, err)
	}
	box := shape.Box()

	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, r.pageError(ctx, ErrDiagramRender, err)
	}

	return &Raster{
		PNG:    png,
		Width:  int(math.Ceil(box.Width)),
		Height: int(math.Ceil(box.Height)),
	}, nil
}

// pageError reports the context error when the page operation failed
// because the call was canceled or timed out.
func (r *rodDiagramRenderer) pageError(ctx context.Context, sentinel, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", sentinel, ctxErr)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// Close shuts the browser down and kills its process tree.
func (r *rodDiagramRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil

	if r.launcher != nil {
		process.KillTree(r.launcher.PID())
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
