package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio_alert_bot/internal/app"
	"studio_alert_bot/internal/infra/clock"
	"studio_alert_bot/internal/infra/config"
	idb "studio_alert_bot/internal/infra/database"
	"studio_alert_bot/internal/infra/logger"
	"studio_alert_bot/internal/infra/scheduler"
	"studio_alert_bot/internal/infra/studioapi"
	"studio_alert_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const startupCheckTimeout = 30 * time.Second

func main() {
	fmt.Println("Studio Alert Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"managers":    len(cfg.ManagerTelegramIDs),
		"api_base":    cfg.StudioAPIBaseURL,
	}).Info("Configuration loaded")

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(appCtx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database schema")
	}
	mainLogger.Info("Database connection established successfully")

	subscriberRepo := idb.NewPostgresSubscriberRepository(db)
	deliveryRepo := idb.NewPostgresDeliveryRepository(db)

	// Studio backend
	baseEntry := logrus.NewEntry(logger.Log)
	apiClient := studioapi.NewClient(cfg.StudioAPIBaseURL, cfg.StudioAPITimeout, baseEntry)

	var credentials *app.Credentials
	if cfg.StudioAPIToken == "" && cfg.HasLogin() {
		credentials = app.NewLoginCredentials(apiClient, cfg.StudioAPIUsername, cfg.StudioAPIPassword)
		mainLogger.Info("Studio API credentials: username/password login")
	} else {
		credentials = app.NewStaticCredentials(cfg.StudioAPIToken)
		if cfg.StudioAPIToken == "" {
			mainLogger.Warn("No studio API credentials configured; the alert board will report it is not authenticated")
		}
	}
	logStudioActor(appCtx, apiClient, credentials, mainLogger)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			errLogger := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				errLogger = errLogger.WithFields(logrus.Fields{
					"text":      c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			errLogger.Error("Telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	tgClient := telegram.NewTelebotAdapter(bot)
	renderer := telegram.NewBoardRenderer(cfg.StudioFrontendURL)

	alertService := app.NewAlertService(
		apiClient,
		credentials,
		subscriberRepo,
		deliveryRepo,
		tgClient,
		renderer,
		clock.New(),
		baseEntry,
	)
	adminService := app.NewAdminService(subscriberRepo, cfg.AdminTelegramID, cfg.ManagerTelegramIDs)

	// Register Handlers
	telegram.RegisterBotCommands(appCtx, bot, alertService, adminService, renderer, baseEntry.WithField("component", "bot_commands"))
	telegram.RegisterAdminHandlers(appCtx, bot, adminService, baseEntry.WithField("component", "admin_handlers"))
	mainLogger.Info("Command handlers registered")

	alertScheduler := scheduler.NewAlertScheduler(alertService, baseEntry, cfg.CronSpecRefresh, cfg.CronSpecDigest)
	if err := alertScheduler.Start(appCtx); err != nil {
		mainLogger.WithError(err).Fatal("Could not start alert scheduler")
	}

	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
	cancelApp()
	alertScheduler.Stop()
	bot.Stop()
	mainLogger.Info("Application shut down gracefully")
}

// logStudioActor reports which backend account the bot reads data as.
// Failures are not fatal; the first refresh surfaces them on the board.
func logStudioActor(ctx context.Context, apiClient *studioapi.Client, credentials app.CredentialProvider, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	credential, err := credentials.Credential(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not obtain studio API credential at startup")
		return
	}
	actor, err := apiClient.CurrentUser(ctx, credential)
	if err != nil {
		log.WithError(err).Warn("Could not resolve studio API user at startup")
		return
	}
	actorLog := log.WithFields(logrus.Fields{
		"studio_user_id": actor.ID,
		"studio_user":    actor.Username,
		"studio_role":    actor.RoleDisplay,
	})
	if !actor.IsManager() {
		actorLog.Warn("Studio API user is not a manager; some records may be hidden from the alert board")
		return
	}
	actorLog.Info("Studio API user resolved")
}
