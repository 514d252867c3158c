package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "jobtrack-backend/cmd/api"
	appDelivery "jobtrack-backend/internal/application/delivery"
	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/scheduler"
	authUsecase "jobtrack-backend/internal/auth/usecase"
	deviceDelivery "jobtrack-backend/internal/device/delivery"
	deviceRepo "jobtrack-backend/internal/device/repository"
	"jobtrack-backend/internal/notification"
	"jobtrack-backend/pkg/fcm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, schedulers and push listener",
	Long: `Run the HTTP API used by the browser extension.

Depending on configuration this also starts:
  - periodic mail syncs (SYNC_INTERVAL)
  - follow-up reminders and status-change pushes (FIREBASE_CREDENTIALS)
  - Gmail push-triggered syncs over Pub/Sub (GOOGLE_PROJECT_ID, GOOGLE_PUBSUB_TOPIC)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	devices := deviceRepo.NewDeviceRepository(a.db)
	var deviceHandler *deviceDelivery.DeviceHandler

	// Push notifications are optional
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger)
		if err != nil {
			logger.Warn("failed to initialize FCM client, push notifications disabled", zap.Error(err))
		} else {
			notifier := notification.NewNotifier(devices, fcmClient, logger)
			deviceHandler = deviceDelivery.NewDeviceHandler(devices)

			a.reconciler.SetTransitionCallback(func(ctx context.Context, transitions []domain.StatusTransition) {
				go notifier.NotifyTransitions(context.WithoutCancel(ctx), transitions)
			})

			followUps := scheduler.NewFollowUpScheduler(a.repo, notifier, cfg.FollowUpInterval, logger)
			followUps.Start()
			defer followUps.Stop()
		}
	} else {
		logger.Info("no Firebase credentials configured, push notifications disabled")
	}

	if a.sync.Enabled() && cfg.SyncInterval > 0 {
		syncs := scheduler.NewSyncScheduler(a.sync, cfg.SyncInterval, cfg.SyncDays, logger)
		syncs.Start()
		defer syncs.Stop()
	}

	// Gmail push needs the Gmail provider for the mailbox watch
	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
		if a.gmail == nil {
			logger.Warn("Pub/Sub configured but MAIL_PROVIDER is not gmail, push listener disabled")
		} else {
			notifService, err := notification.NewService(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials, a.sync, a.gmail, logger)
			if err != nil {
				logger.Error("failed to initialize notification service", zap.Error(err))
			} else {
				defer notifService.Close()
				go func() {
					if err := notifService.Start(ctx); err != nil {
						logger.Error("notification service stopped", zap.Error(err))
					}
				}()
			}
		}
	}

	auth := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTTokenTTL)
	appHandler := appDelivery.NewApplicationHandler(a.reconciler, a.applications, a.sync, a.importer)
	settingsHandler := api.NewSettingsHandler(a.rules, a.reconciler, cfg.MergeWindow)
	handler := api.NewHandler(auth, appHandler, deviceHandler, settingsHandler, logger)

	return handler.Start(ctx, ":"+cfg.Port)
}
