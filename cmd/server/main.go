package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dungeonofmasters/dom-server/internal/config"
	"github.com/dungeonofmasters/dom-server/internal/gateway"
	"github.com/dungeonofmasters/dom-server/internal/repositories/rooms"
	roomsvc "github.com/dungeonofmasters/dom-server/internal/services/room"
)

const tickInterval = 5 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	} else {
		log.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err.Error()).Fatal("failed to load config")
	}

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Keep the Redis client for cleanup
	var redisClient *redis.Client

	var repo rooms.Repository
	if cfg.Redis.Addr != "" {
		log.WithField("addr", cfg.Redis.Addr).Info("connecting to redis")

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.WithField("error", err.Error()).Warn("redis unavailable, falling back to in-memory rooms")
			redisClient = nil
			repo = rooms.NewInMemoryRepository()
		} else {
			cancel()
			repo = rooms.NewRedisRepository(&rooms.RedisRepoConfig{Client: redisClient})
		}
	} else {
		log.Info("no REDIS_ADDR set, using in-memory rooms")
		repo = rooms.NewInMemoryRepository()
	}

	hub := gateway.NewHub(log)

	svc := roomsvc.NewService(&roomsvc.ServiceConfig{
		Repository: repo,
		Events:     hub,
		Logger:     log,
		Game:       cfg.Game,
	})

	gw := gateway.New(&gateway.GatewayConfig{
		Service: svc,
		Hub:     hub,
		Logger:  log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// periodic rules (boss heal) run off a plain ticker
	tickCtx, stopTicks := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if err := svc.OnTick(tickCtx, now.UTC()); err != nil {
					log.WithField("error", err.Error()).Warn("tick failed")
				}
			case <-tickCtx.Done():
				return
			}
		}
	}()

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err.Error()).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	stopTicks()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Warn("shutdown incomplete")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithField("error", err.Error()).Warn("failed to close redis client")
		}
	}
}
