package cli

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/importer"
	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/internal/application/usecase"
	devicedomain "jobtrack-backend/internal/device/domain"
	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/database"
	"jobtrack-backend/pkg/gmail"
	"jobtrack-backend/pkg/imap"
)

// app holds the components shared by the commands
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rules  *config.Rules

	repo         repository.ApplicationRepository
	reconciler   *usecase.Reconciler
	applications *usecase.ApplicationUsecase
	sync         *usecase.SyncUsecase
	importer     *importer.Importer
	gmail        *gmail.Service // nil unless MAIL_PROVIDER=gmail
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, &domain.Application{}, &domain.Event{}, &devicedomain.Device{}); err != nil {
		closeDB(db)
		return nil, err
	}

	repo := repository.NewGormApplicationRepository(db)
	reconciler, err := usecase.NewReconciler(repo, rules, cfg.MergeWindow, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	provider, gmailService, err := newMailProvider(cfg, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		rules:        rules,
		repo:         repo,
		reconciler:   reconciler,
		applications: usecase.NewApplicationUsecase(repo, logger),
		sync:         usecase.NewSyncUsecase(provider, reconciler, cfg.SyncDays, logger),
		importer:     importer.New(rules.SkipCompanies, logger),
		gmail:        gmailService,
	}, nil
}

// newMailProvider returns nil when mail sync is not configured
func newMailProvider(cfg *config.Config, logger *zap.Logger) (domain.MailProvider, *gmail.Service, error) {
	switch cfg.MailProvider {
	case "":
		return nil, nil, nil
	case "gmail":
		svc, err := gmail.NewService(gmail.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
			Query:        cfg.GmailQuery,
			MaxMessages:  cfg.GmailMaxMessages,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	case "imap":
		p, err := imap.NewProvider(imap.Config{
			Addr:     cfg.IMAPAddr,
			Username: cfg.IMAPUsername,
			Password: cfg.IMAPPassword,
			Mailbox:  cfg.IMAPMailbox,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown MAIL_PROVIDER %q (want gmail, imap or empty)", cfg.MailProvider)
}

func (a *app) Close() {
	closeDB(a.db)
	_ = a.logger.Sync()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// setup loads config, logger and app for a command
func setup() (*app, error) {
	cfg := loadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}
