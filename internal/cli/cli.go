package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/leeduo/marketdeck/internal/analysis"
	"github.com/leeduo/marketdeck/internal/api"
	"github.com/leeduo/marketdeck/internal/config"
	"github.com/leeduo/marketdeck/internal/render"
	"github.com/leeduo/marketdeck/internal/storage/sqlite"
	"github.com/leeduo/marketdeck/internal/store"
	"github.com/leeduo/marketdeck/internal/stream"
)

// App wires the dashboard's components: the backend client, the stream
// consumer, the caches, the renderer and the optional local history store.
type App struct {
	cfg        *config.Config
	client     *api.Client
	consumer   *stream.Consumer
	renderer   *render.Renderer
	market     *store.MarketStore
	strategies *store.StrategyStore
	history    *sqlite.Store
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	client := api.NewClient(cfg.BackendURL, cfg.RequestTimeout)

	app := &App{
		cfg:        cfg,
		client:     client,
		consumer:   stream.NewConsumer(client.Resty()),
		renderer:   render.New(),
		market:     store.NewMarketStore(client),
		strategies: store.NewStrategyStore(client),
	}

	if cfg.HistoryEnabled {
		history, err := sqlite.Open(cfg.HistoryDBPath())
		if err != nil {
			// History is a convenience; the dashboard works without it.
			log.Printf("local history disabled: %v", err)
		} else {
			app.history = history
		}
	}

	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
}

// NewController creates an analysis controller wired to the app's renderer
// and history store.
func (a *App) NewController(onChange func(analysis.Session)) *analysis.Controller {
	opts := []analysis.Option{
		analysis.WithRender(a.renderer.Markdown),
		analysis.WithHTMLRender(a.renderer.HTML),
		analysis.WithErrorRender(a.renderer.Error),
		analysis.WithOnChange(onChange),
	}
	if a.history != nil {
		opts = append(opts, analysis.WithRecorder(&historyRecorder{store: a.history}))
	}
	return analysis.NewController(a.consumer, a.client, opts...)
}

// historyRecorder adapts the sqlite store to the controller's Recorder.
type historyRecorder struct {
	store *sqlite.Store
}

func (r *historyRecorder) Record(ctx context.Context, sel analysis.Selection, status analysis.SessionStatus, markdown string) error {
	return r.store.RecordSession(ctx, sqlite.HistoryRecord{
		Symbol:   sel.Symbol,
		Mode:     string(sel.Mode),
		Date:     sel.Date,
		Status:   status.String(),
		Markdown: markdown,
	})
}
