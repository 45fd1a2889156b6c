package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"poolintake/internal/bootstrap"
	"poolintake/internal/modules/onboarding/domain"
	"poolintake/internal/modules/onboarding/dto"
	"poolintake/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var basePath string

	root := &cobra.Command{
		Use:           "poolintake",
		Short:         "Pool customer onboarding intake",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&basePath, "base", ".", "data directory")

	root.AddCommand(newTUICmd(&basePath))
	root.AddCommand(newSessionCmd(&basePath))
	root.AddCommand(newDraftsCmd(&basePath))
	root.AddCommand(newCaptureCmd(&basePath))
	return root
}

func loadApp(basePath string) (*bootstrap.App, error) {
	cfg, err := config.New(basePath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withSession loads the app and resumes (or starts) the customer's draft
// before running the action, closing the store afterwards.
func withSession(basePath, customerID, customerName string, action func(app *bootstrap.App) error) error {
	if strings.TrimSpace(customerID) == "" {
		return fmt.Errorf("--customer-id is required")
	}
	app, err := loadApp(basePath)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	if _, err := app.OnboardingCLI.Initialize(context.Background(), customerID, customerName); err != nil {
		return err
	}
	return action(app)
}

func printState(cmd *cobra.Command, state dto.StateOutput) {
	session := state.Session
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "customer=%s name=%q status=%s step=%d/%d can_advance=%t\n",
		session.CustomerID, session.CustomerName, session.Status, state.Step+1, domain.StepCount, state.CanAdvance)
	labels := [domain.StepCount]string{"customer", "chemistry", "pool", "equipment", "voice"}
	for i, label := range labels {
		marker := " "
		if state.StepsComplete[i] {
			marker = "x"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", marker, label)
	}
}

func newTUICmd(basePath *string) *cobra.Command {
	var customerID, customerName string
	tui := &cobra.Command{
		Use:   "tui --customer-id <id>",
		Short: "Run the intake wizard",
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(customerID) == "" {
				return fmt.Errorf("--customer-id is required")
			}
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(context.Background(), app, customerID, customerName)
		},
	}
	tui.Flags().StringVar(&customerID, "customer-id", "", "customer id")
	tui.Flags().StringVar(&customerName, "name", "", "customer display name")
	return tui
}

func newSessionCmd(basePath *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Intake session operations"}

	var startID, startName string
	start := &cobra.Command{
		Use:   "start --customer-id <id>",
		Short: "Start or resume an intake session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, startID, startName, func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.State(context.Background())
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	start.Flags().StringVar(&startID, "customer-id", "", "customer id")
	start.Flags().StringVar(&startName, "name", "", "customer display name")

	var statusID string
	status := &cobra.Command{
		Use:   "status --customer-id <id>",
		Short: "Show session progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, statusID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.State(context.Background())
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	status.Flags().StringVar(&statusID, "customer-id", "", "customer id")

	var custID string
	custInput := dto.CustomerInfoInput{}
	setCustomer := &cobra.Command{
		Use:   "set-customer --customer-id <id>",
		Short: "Record customer contact and address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, custID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.UpdateCustomerInfo(context.Background(), custInput)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	setCustomer.Flags().StringVar(&custID, "customer-id", "", "customer id")
	setCustomer.Flags().StringVar(&custInput.FirstName, "first-name", "", "first name")
	setCustomer.Flags().StringVar(&custInput.LastName, "last-name", "", "last name")
	setCustomer.Flags().StringVar(&custInput.Email, "email", "", "email")
	setCustomer.Flags().StringVar(&custInput.Phone, "phone", "", "phone")
	setCustomer.Flags().StringVar(&custInput.Street, "street", "", "street")
	setCustomer.Flags().StringVar(&custInput.City, "city", "", "city")
	setCustomer.Flags().StringVar(&custInput.State, "state", "", "state")
	setCustomer.Flags().StringVar(&custInput.Zip, "zip", "", "zip")

	var chemID string
	var chlorine, ph, alkalinity, cya float64
	setChemistry := &cobra.Command{
		Use:   "set-chemistry --customer-id <id>",
		Short: "Record water chemistry readings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := dto.WaterChemistryInput{}
			if cmd.Flags().Changed("chlorine") {
				input.Chlorine = &chlorine
			}
			if cmd.Flags().Changed("ph") {
				input.PH = &ph
			}
			if cmd.Flags().Changed("alkalinity") {
				input.Alkalinity = &alkalinity
			}
			if cmd.Flags().Changed("cyanuric-acid") {
				input.CyanuricAcid = &cya
			}
			return withSession(*basePath, chemID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.UpdateWaterChemistry(context.Background(), input)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	setChemistry.Flags().StringVar(&chemID, "customer-id", "", "customer id")
	setChemistry.Flags().Float64Var(&chlorine, "chlorine", 0, "free chlorine ppm")
	setChemistry.Flags().Float64Var(&ph, "ph", 0, "ph reading")
	setChemistry.Flags().Float64Var(&alkalinity, "alkalinity", 0, "total alkalinity ppm")
	setChemistry.Flags().Float64Var(&cya, "cyanuric-acid", 0, "cyanuric acid ppm")

	var poolID, poolType, poolShape, poolSurface string
	var gallons float64
	setPool := &cobra.Command{
		Use:   "set-pool --customer-id <id>",
		Short: "Record pool details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := dto.PoolDetailsInput{}
			if cmd.Flags().Changed("type") {
				input.Type = &poolType
			}
			if cmd.Flags().Changed("shape") {
				input.Shape = &poolShape
			}
			if cmd.Flags().Changed("surface") {
				input.Surface = &poolSurface
			}
			if cmd.Flags().Changed("gallons") {
				input.VolumeGallons = &gallons
			}
			return withSession(*basePath, poolID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.UpdatePoolDetails(context.Background(), input)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	setPool.Flags().StringVar(&poolID, "customer-id", "", "customer id")
	setPool.Flags().StringVar(&poolType, "type", "", "pool type")
	setPool.Flags().StringVar(&poolShape, "shape", "", "pool shape")
	setPool.Flags().StringVar(&poolSurface, "surface", "", "surface material")
	setPool.Flags().Float64Var(&gallons, "gallons", 0, "volume in gallons")

	var equipID, pumpType, filterType, sanitizerType, heaterType string
	setEquipment := &cobra.Command{
		Use:   "set-equipment --customer-id <id>",
		Short: "Record equipment components",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := dto.EquipmentInput{}
			if pumpType != "" {
				input.Pump = &domain.EquipmentComponent{Type: pumpType}
			}
			if filterType != "" {
				input.Filter = &domain.EquipmentComponent{Type: filterType}
			}
			if sanitizerType != "" {
				input.Sanitizer = &domain.EquipmentComponent{Type: sanitizerType}
			}
			if heaterType != "" {
				input.Heater = &domain.EquipmentComponent{Type: heaterType}
			}
			return withSession(*basePath, equipID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.UpdateEquipment(context.Background(), input)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	setEquipment.Flags().StringVar(&equipID, "customer-id", "", "customer id")
	setEquipment.Flags().StringVar(&pumpType, "pump", "", "pump type")
	setEquipment.Flags().StringVar(&filterType, "filter", "", "filter type")
	setEquipment.Flags().StringVar(&sanitizerType, "sanitizer", "", "sanitizer type")
	setEquipment.Flags().StringVar(&heaterType, "heater", "", "heater type")

	var photoID, photoURI string
	addPhoto := &cobra.Command{
		Use:   "add-photo --customer-id <id> --uri <uri>",
		Short: "Attach a photo to the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(photoURI) == "" {
				return fmt.Errorf("--uri is required")
			}
			return withSession(*basePath, photoID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.AddPhoto(context.Background(), dto.AddPhotoInput{
					URI:        photoURI,
					CapturedAt: time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	addPhoto.Flags().StringVar(&photoID, "customer-id", "", "customer id")
	addPhoto.Flags().StringVar(&photoURI, "uri", "", "photo uri or path")

	var voiceID, voiceURI, voiceTranscription string
	var voiceSeconds int
	var record bool
	voice := &cobra.Command{
		Use:   "voice --customer-id <id>",
		Short: "Attach or record the walkthrough voice note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, voiceID, "", func(app *bootstrap.App) error {
				ctx := context.Background()
				uri, seconds := voiceURI, voiceSeconds
				if record {
					state, err := app.OnboardingCLI.State(ctx)
					if err != nil {
						return err
					}
					out, err := app.CaptureCLI.RecordVoice(ctx, state.Session.ID, app.MediaDir, domain.MaxVoiceNoteSeconds)
					if err != nil {
						return err
					}
					uri, seconds = out.URI, out.DurationSeconds
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recorded %s (%ds)\n", uri, seconds)
				}
				if strings.TrimSpace(uri) == "" {
					return fmt.Errorf("--uri or --record is required")
				}
				state, err := app.OnboardingCLI.SetVoiceNote(ctx, dto.VoiceNoteInput{
					URI:             uri,
					DurationSeconds: seconds,
					Transcription:   voiceTranscription,
				})
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	voice.Flags().StringVar(&voiceID, "customer-id", "", "customer id")
	voice.Flags().StringVar(&voiceURI, "uri", "", "recording uri or path")
	voice.Flags().IntVar(&voiceSeconds, "duration", 0, "duration in seconds")
	voice.Flags().StringVar(&voiceTranscription, "transcription", "", "optional transcription")
	voice.Flags().BoolVar(&record, "record", false, "record via the capture device")

	var navID string
	var gotoStep int
	next := &cobra.Command{
		Use:   "next --customer-id <id>",
		Short: "Advance to the next step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, navID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.Advance(context.Background())
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	back := &cobra.Command{
		Use:   "back --customer-id <id>",
		Short: "Return to the previous step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, navID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.Retreat(context.Background())
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	gotoCmd := &cobra.Command{
		Use:   "goto --customer-id <id> --step <n>",
		Short: "Jump to a visited step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, navID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.GoTo(context.Background(), gotoStep)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			})
		},
	}
	save := &cobra.Command{
		Use:   "save --customer-id <id>",
		Short: "Persist the draft and mark it in progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, navID, "", func(app *bootstrap.App) error {
				state, err := app.OnboardingCLI.SaveAndExit(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "draft saved: customer=%s status=%s\n", state.Session.CustomerID, state.Session.Status)
				return nil
			})
		},
	}
	for _, c := range []*cobra.Command{next, back, gotoCmd, save} {
		c.Flags().StringVar(&navID, "customer-id", "", "customer id")
	}
	gotoCmd.Flags().IntVar(&gotoStep, "step", 0, "step index (0-4)")

	var completeID string
	complete := &cobra.Command{
		Use:   "complete --customer-id <id>",
		Short: "Upload media, submit the intake, and clear the draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(*basePath, completeID, "", func(app *bootstrap.App) error {
				out, err := app.OnboardingCLI.Complete(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "intake completed: session=%s customer=%s at=%s\n",
					out.SessionID, out.CustomerID, out.CompletedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	complete.Flags().StringVar(&completeID, "customer-id", "", "customer id")

	session.AddCommand(start, status, setCustomer, setChemistry, setPool, setEquipment, addPhoto, voice, next, back, gotoCmd, save, complete)
	return session
}

func newDraftsCmd(basePath *string) *cobra.Command {
	drafts := &cobra.Command{Use: "drafts", Short: "Stored draft inspection"}

	drafts.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored drafts, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			sessions, err := app.Drafts.List(context.Background())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
				return nil
			}
			for _, s := range sessions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%q\t%s\tstarted=%s\n",
					s.CustomerID, s.CustomerName, s.Status, s.StartedAt.Format(time.RFC3339))
			}
			return nil
		},
	})

	var showID string
	show := &cobra.Command{
		Use:   "show --customer-id <id>",
		Short: "Show one stored draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(showID) == "" {
				return fmt.Errorf("--customer-id is required")
			}
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			session, err := app.Drafts.Get(context.Background(), showID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s customer=%s name=%q status=%s started=%s\n",
				session.ID, session.CustomerID, session.CustomerName, session.Status, session.StartedAt.Format(time.RFC3339))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "customer_info=%t chemistry=%t pool=%t equipment=%t voice=%t photos=%d\n",
				session.CustomerInfo != nil, session.WaterChemistry != nil, session.PoolDetails != nil,
				session.Equipment != nil, session.VoiceNote != nil, len(session.Photos))
			return nil
		},
	}
	show.Flags().StringVar(&showID, "customer-id", "", "customer id")
	drafts.AddCommand(show)
	return drafts
}

func newCaptureCmd(basePath *string) *cobra.Command {
	capture := &cobra.Command{Use: "capture", Short: "Capture device operations"}

	capture.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List capture plugins and probe reachability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			devices, err := app.CaptureCLI.ListDevices(context.Background())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no capture plugins configured")
				return nil
			}
			for _, d := range devices {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t reachable=%t capabilities=%s binary=%s",
					d.Name, d.Version, d.Enabled, d.Reachable, strings.Join(d.Capabilities, ","), d.Binary)
				if d.ProbeError != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", d.ProbeError)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	})

	var photoSession string
	photo := &cobra.Command{
		Use:   "photo --session <id>",
		Short: "Capture a photo with the configured device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.CaptureCLI.CapturePhoto(context.Background(), photoSession, app.MediaDir)
			if err != nil {
				return err
			}
			if out.Cancelled {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "capture cancelled")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.URI)
			return nil
		},
	}
	photo.Flags().StringVar(&photoSession, "session", "", "session id for file naming")
	capture.AddCommand(photo)

	var voiceSession string
	var maxSeconds int
	voiceCmd := &cobra.Command{
		Use:   "voice --session <id>",
		Short: "Record a voice note with the configured device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*basePath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.CaptureCLI.RecordVoice(context.Background(), voiceSession, app.MediaDir, maxSeconds)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s duration=%ds\n", out.URI, out.DurationSeconds)
			return nil
		},
	}
	voiceCmd.Flags().StringVar(&voiceSession, "session", "", "session id for file naming")
	voiceCmd.Flags().IntVar(&maxSeconds, "max-seconds", domain.MaxVoiceNoteSeconds, "recording cap in seconds")
	capture.AddCommand(voiceCmd)

	return capture
}
