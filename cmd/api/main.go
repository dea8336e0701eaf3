package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/config"
	"github.com/waritsan/theglobe/internal/db"
	apihttp "github.com/waritsan/theglobe/internal/http"
	"github.com/waritsan/theglobe/internal/llm"
	"github.com/waritsan/theglobe/internal/repository"
	"github.com/waritsan/theglobe/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db config", zap.Error(err))
	}
	defer pool.Close()

	// Una base inalcanzable no tumba el arranque; /db-status reporta el problema.
	ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(ctxPing, pool); err != nil {
		logger.Warn("db ping failed", zap.Error(err))
	}
	cancelPing()

	postRepo := repository.NewPgPostRepository(pool)
	categoryRepo := repository.NewPgCategoryRepository(pool)
	commentRepo := repository.NewPgCommentRepository(pool)
	chatMessageRepo := repository.NewPgChatMessageRepository(pool)

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	chatSvc := service.NewChatService(llmClient, chatMessageRepo, logger)

	var chatLimiter service.ChatRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxRedis, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxRedis).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			chatLimiter = service.NewRedisChatRateLimiter(
				redisClient,
				time.Duration(cfg.ChatRateWindowSeconds)*time.Second,
				cfg.ChatRateMax,
			)
		}
		cancel()
	}

	systemHandler := apihttp.NewSystemHandler(logger, pool)
	postHandler := apihttp.NewPostHandler(logger, postRepo)
	categoryHandler := apihttp.NewCategoryHandler(logger, categoryRepo)
	commentHandler := apihttp.NewCommentHandler(logger, commentRepo)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc, chatLimiter)

	router := apihttp.NewRouter(logger, cfg.CORSOrigins(), systemHandler, postHandler, categoryHandler, commentHandler, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
