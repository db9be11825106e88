package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-console/internal/client"
	"user-console/internal/config"
	"user-console/internal/form"
	"user-console/internal/metrics"
	"user-console/internal/userlist"
	"user-console/internal/web"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("user_console")
	api, err := client.New(cfg.Console.APIBaseURL, client.WithObserver(m.ObserveClientCall))
	if err != nil {
		logger.Fatalf("build api client: %v", err)
	}

	sessions := web.NewSessions(cfg.Console.SessionTTL, func(id string) *userlist.Store {
		return userlist.New(api, logger.WithField("session", id[:8]))
	}, logger)
	go sessions.Run(ctx, time.Minute)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())
	router.GET(web.MetricsPath, gin.WrapH(m.Handler()))

	console := web.NewConsole(api, sessions, form.MessagesFor(cfg.Console.Locale), logger)
	if err := console.RegisterRoutes(router); err != nil {
		logger.Fatalf("register console routes: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Console.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("console listening on %s, api at %s", cfg.Console.Addr, cfg.Console.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
