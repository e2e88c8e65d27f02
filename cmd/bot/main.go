package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/i18n"
	"github.com/mosefak/medchat/internal/middleware"
	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/ai"
	"github.com/mosefak/medchat/internal/services/cache"
	"github.com/mosefak/medchat/internal/services/directory"
	"github.com/mosefak/medchat/internal/services/query"
	"github.com/mosefak/medchat/internal/services/retrieval"
	"github.com/mosefak/medchat/internal/store"
	"github.com/mosefak/medchat/internal/workflow"
	"github.com/mosefak/medchat/pkg/langdetect"
	"github.com/mosefak/medchat/pkg/logger"
	"github.com/mosefak/medchat/pkg/markdown"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Telegram.Enabled {
		fmt.Println("Telegram front end is disabled in configuration")
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting medchat Telegram bot...")

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}
	bot.Debug = cfg.Logging.Level == "debug"
	log.WithField("username", bot.Self.UserName).Info("Bot authorized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := query.OpenDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	threadStore, err := store.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize thread store")
	}
	if client := threadStore.GetRedisClient(); client != nil {
		defer client.Close()
	}

	metrics := middleware.NewMetrics()

	aiService := ai.NewOpenAI(&cfg.Model, log)
	cacheService := cache.NewCache(cfg, log)
	executor := query.NewExecutor(db, cacheService, metrics, log)
	dir := directory.NewDirectory(executor, cfg.Database.Name, log)

	retriever, err := retrieval.NewRetriever(&cfg.Knowledge, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load knowledge indexes")
	}
	seedCtx, seedCancel := context.WithTimeout(ctx, 60*time.Second)
	values := dir.ProperNouns(seedCtx, models.Identity{UserID: "system", Role: models.RoleAdmin})
	seedCancel()
	if len(values) > 0 {
		retriever.Rebuild(retrieval.IndexProperNouns, values)
	}

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	rateLimiter := middleware.NewRateLimiter(cfg, log)

	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	engine := workflow.NewEngine(
		aiService,
		retriever,
		executor,
		dir,
		threadStore,
		localizer,
		metrics,
		log,
		cfg.Context.MaxMessages,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.UpdateTimeout
	updates := bot.GetUpdatesChan(u)
	log.Info("Using long polling")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for update := range updates {
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			metrics.RecordMessageReceived("telegram")

			userID := strconv.FormatInt(update.Message.From.ID, 10)
			if !rateLimiter.Allow(userID) {
				metrics.RecordRateLimitExceeded(userID)
				lang := langdetect.Language(update.Message.Text)
				reply := tgbotapi.NewMessage(update.Message.Chat.ID, localizer.Get(lang, i18n.MsgRateLimitExceeded, nil))
				if _, err := bot.Send(reply); err != nil {
					log.WithError(err).Error("Failed to send rate limit reply")
				}
				continue
			}

			// Telegram users have no platform role claim, so they enter
			// the pipeline as patients with the restricted schema.
			identity := models.Identity{UserID: userID, Role: models.RolePatient}
			threadID := strconv.FormatInt(update.Message.Chat.ID, 10)

			turnCtx, turnCancel := context.WithTimeout(ctx, 2*time.Minute)
			answer := engine.Run(turnCtx, threadID, update.Message.Text, identity)
			turnCancel()

			reply := tgbotapi.NewMessage(update.Message.Chat.ID, markdown.ToTelegramHTML(answer))
			reply.ParseMode = tgbotapi.ModeHTML
			if _, err := bot.Send(reply); err != nil {
				log.WithError(err).Error("Failed to send reply")
				// Fall back to plain text when HTML parsing fails
				plain := tgbotapi.NewMessage(update.Message.Chat.ID, answer)
				if _, err := bot.Send(plain); err != nil {
					log.WithError(err).Error("Failed to send plain text reply")
				}
			}
		}
	}()

	<-sigChan
	log.Info("Shutdown signal received")
	bot.StopReceivingUpdates()
	cancel()
	time.Sleep(2 * time.Second)
	log.Info("Bot stopped")
}
