package bootstrap

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	decoderinadapter "vscan/internal/modules/decoder/adapter/in"
	decoderoutadapter "vscan/internal/modules/decoder/adapter/out"
	decoderservice "vscan/internal/modules/decoder/service"
	decoderusecase "vscan/internal/modules/decoder/usecase"
	engineinadapter "vscan/internal/modules/engine/adapter/in"
	engineoutadapter "vscan/internal/modules/engine/adapter/out"
	enginedomain "vscan/internal/modules/engine/domain"
	engineservice "vscan/internal/modules/engine/service"
	engineusecase "vscan/internal/modules/engine/usecase"
	mediainadapter "vscan/internal/modules/media/adapter/in"
	mediaoutadapter "vscan/internal/modules/media/adapter/out"
	mediadomain "vscan/internal/modules/media/domain"
	mediaservice "vscan/internal/modules/media/service"
	mediausecase "vscan/internal/modules/media/usecase"
	scaninadapter "vscan/internal/modules/scan/adapter/in"
	scanoutadapter "vscan/internal/modules/scan/adapter/out"
	scanout "vscan/internal/modules/scan/port/out"
	scanusecase "vscan/internal/modules/scan/usecase"
	"vscan/internal/platform/config"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/reactive"
	"vscan/internal/platform/video"
	uiapp "vscan/internal/ui/app"
)

type App struct {
	EngineCLI  engineinadapter.CLIHandler
	MediaCLI   mediainadapter.CLIHandler
	ScanCLI    scaninadapter.CLIHandler
	DecoderCLI decoderinadapter.CLIHandler

	closers []func(context.Context) error
}

// New wires one engine around a single video element. registry may be nil,
// in which case no scan metrics are collected.
func New(cfg config.Config, logger hclog.Logger, registry prometheus.Registerer) (*App, error) {
	logger = logging.OrDiscard(logger)

	source, err := mediaoutadapter.ParseSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	store := reactive.NewStore(enginedomain.DefaultOptions())

	urls := video.NewObjectURLRegistry()
	element := video.NewElement(urls)
	mediaUC := mediausecase.NewInteractor(mediaservice.NewController(mediaservice.Deps{
		Logger:      logger,
		Environment: mediaoutadapter.NewEnvironment(source, cfg.AllowInsecure),
		Provider:    mediaoutadapter.NewDeviceProvider(source, logger),
		Options:     reactive.Select(store, func(o enginedomain.Options) mediadomain.Options { return o.Media }),
		Sink:        element,
		ObjectURLs:  urls,
	}))

	history, err := scanoutadapter.NewSQLiteHistory(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new scan history: %w", err)
	}
	var observer scanout.Observer
	if registry != nil {
		prom, err := scanoutadapter.NewPrometheusObserver(registry)
		if err != nil {
			_ = history.Close()
			return nil, fmt.Errorf("new scan metrics: %w", err)
		}
		observer = prom
	}
	scanUC := scanusecase.NewInteractor(scanusecase.Deps{
		Logger: logger,
		Sources: func(el *video.Element) scanout.FrameSource {
			return scanoutadapter.NewElementFrameSource(el, scanoutadapter.DefaultMaxCanvasPixels)
		},
		Scheduler: scanoutadapter.NewTickerScheduler(scanoutadapter.DefaultFrameRate),
		History:   history,
		Observer:  observer,
	})

	decoderUC := decoderusecase.NewInteractor(decoderservice.NewDecoderService(
		decoderoutadapter.NewFileManifestStore(cfg.DecodersPath),
		decoderoutadapter.NewGRPCHost(logger),
		decoderoutadapter.NewBuiltinConn(),
		logger,
	))

	engine := engineservice.New(engineservice.Deps{
		Logger:   logger,
		Store:    store,
		Media:    mediaUC,
		Scans:    scanUC,
		Decoders: decoderUC,
		Element:  element,
	})
	engineUC := engineusecase.NewInteractor(engine, engineoutadapter.NewOptionsFile(cfg.OptionsPath, logger))

	return &App{
		EngineCLI:  engineinadapter.NewCLIHandler(engineUC),
		MediaCLI:   mediainadapter.NewCLIHandler(mediaUC),
		ScanCLI:    scaninadapter.NewCLIHandler(scanUC),
		DecoderCLI: decoderinadapter.NewCLIHandler(decoderUC),
		closers: []func(context.Context) error{
			engineUC.Close,
			func(context.Context) error { return history.Close() },
		},
	}, nil
}

// Close stops the engine and releases the history database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c(ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App, decoder string) error {
	model := uiapp.NewModel(ctx, app.EngineCLI, app.ScanCLI, decoder)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
