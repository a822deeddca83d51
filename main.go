package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/logging"
	"blog/internal/mail"
	"blog/internal/middleware"
	"blog/internal/repositories"
	"blog/internal/server"
	"blog/internal/services"
	"blog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stores struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	close    func()
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open stores", zap.Error(err))
	}
	defer st.close()

	// --- Mail: SMTP or log, optionally behind a RabbitMQ outbox ---
	var delivery mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.Host != "" {
		delivery = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	}
	mailer := delivery
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, logger)
		if err != nil {
			logger.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()

		outbox := mail.NewOutbox(mqClient, delivery)
		mailer = outbox
		go func() {
			if err := mqClient.Consume(ctx, outbox.Deliver); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- Services ---
	authService := services.NewAuthService(st.users, mailer, services.NewPasswordHasher(cfg.Auth.BcryptCost), services.AuthOptions{
		JWTSecret:        cfg.Auth.JWTSecret,
		TokenTTL:         cfg.Auth.TokenTTL,
		ResetTTL:         cfg.Auth.ResetTTL,
		FrontendURL:      cfg.App.FrontendURL,
		HideUnknownEmail: cfg.Auth.HideUnknownEmail,
	}, logger)
	postService := services.NewPostService(st.posts)
	commentService := services.NewCommentService(st.comments, st.posts)

	// --- Rate limiting (optional) ---
	var authLimiter fiber.Handler
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		authLimiter = middleware.NewRateLimiter(rdb, "ratelimit", cfg.Redis.Limit, cfg.Redis.Window, logger).ByIP()
	}

	app := server.New(server.Deps{
		Auth:        authService,
		Posts:       postService,
		Comments:    commentService,
		Log:         logger,
		AuthLimiter: authLimiter,
		AllowOrigin: cfg.App.FrontendURL,
		RequestLog:  true,
	})

	go func() {
		logger.Info("starting server", zap.String("port", cfg.App.Port), zap.String("db", cfg.Database.Driver))
		if err := app.Listen(cfg.App.Port); err != nil {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case "memory":
		return &stores{
			users:    repositories.NewMockUserRepository(),
			posts:    repositories.NewMockPostRepository(),
			comments: repositories.NewMockCommentRepository(),
			close:    func() {},
		}, nil
	case "mongo":
		client, err := database.OpenMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repositories.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, err
		}
		return &stores{
			users:    repositories.NewMongoUserRepository(db),
			posts:    repositories.NewMongoPostRepository(db),
			comments: repositories.NewMongoCommentRepository(db),
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		db, err := database.OpenGORM(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    repositories.NewGORMUserRepository(db),
			posts:    repositories.NewGORMPostRepository(db),
			comments: repositories.NewGORMCommentRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	}
}
