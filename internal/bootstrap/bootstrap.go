package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	captureinadapter "poolintake/internal/modules/capture/adapter/in"
	captureoutadapter "poolintake/internal/modules/capture/adapter/out"
	captureservice "poolintake/internal/modules/capture/service"
	captureusecase "poolintake/internal/modules/capture/usecase"
	onboardinginadapter "poolintake/internal/modules/onboarding/adapter/in"
	onboardingoutadapter "poolintake/internal/modules/onboarding/adapter/out"
	"poolintake/internal/modules/onboarding/domain"
	onboardingservice "poolintake/internal/modules/onboarding/service"
	onboardingusecase "poolintake/internal/modules/onboarding/usecase"
	"poolintake/internal/platform/clock"
	"poolintake/internal/platform/config"
	"poolintake/internal/platform/id"
	"poolintake/internal/ui/wizard"
)

type App struct {
	OnboardingCLI onboardinginadapter.CLIHandler
	CaptureCLI    captureinadapter.CLIHandler
	Drafts        *onboardingoutadapter.SQLiteDraftStore
	MediaDir      string

	closers []func() error
}

func New(cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.RandomHex{}

	drafts, err := onboardingoutadapter.NewSQLiteDraftStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new draft store: %w", err)
	}

	manager := onboardingservice.NewSessionManager(clk, ids, drafts, domain.Options{
		RequireEquipment: cfg.RequireEquipment,
		UploadPhotos:     cfg.UploadPhotos,
	})
	api := onboardingoutadapter.NewHTTPOnboardingAPI(cfg.API)
	onboardingUC := onboardingusecase.NewInteractor(manager, api, clk)

	captureUC := captureusecase.NewInteractor(captureservice.NewDeviceResolver(
		captureoutadapter.NewFileManifestStore(filepath.Join(cfg.BasePath, "plugins")),
		captureoutadapter.NewGRPCHost(),
	))

	return &App{
		OnboardingCLI: onboardinginadapter.NewCLIHandler(onboardingUC),
		CaptureCLI:    captureinadapter.NewCLIHandler(captureUC),
		Drafts:        drafts,
		MediaDir:      filepath.Join(cfg.BasePath, "media"),
		closers:       []func() error{drafts.Close},
	}, nil
}

func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunTUI initializes or resumes the customer's intake and hands the terminal
// to the wizard until the technician exits or completes.
func RunTUI(ctx context.Context, app *App, customerID, customerName string) error {
	initial, err := app.OnboardingCLI.Initialize(ctx, customerID, customerName)
	if err != nil {
		return err
	}
	model := wizard.NewModel(app.OnboardingCLI, app.CaptureCLI, app.MediaDir, initial)
	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if done, ok := final.(wizard.Model); ok && done.Completed() {
		fmt.Printf("intake completed for customer %s\n", customerID)
	}
	return nil
}
