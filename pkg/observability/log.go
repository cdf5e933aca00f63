package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. The CLI registers it when --verbose is set.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to the default logger
// when logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnExportStart(_ context.Context, input, output string) {
	h.logger.Debug("export start", "input", input, "output", output)
}

func (h *LogHooks) OnExportComplete(_ context.Context, input, output, spec string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("export failed", "input", input, "output", output, "elapsed", d, "err", err)
		return
	}
	h.logger.Debug("export done", "input", input, "spec", spec, "elapsed", d)
}

func (h *LogHooks) OnBrowserStart(_ context.Context, engine string, d time.Duration, err error) {
	h.logger.Debug("browser start", "engine", engine, "elapsed", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "elapsed", d)
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetExportHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

var (
	_ ExportHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
