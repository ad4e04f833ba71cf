// Package main runs the SGA asset management server: the REST API, the
// server-rendered pages and the Prometheus endpoint on a single listener.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/assetops/sga/internal/app"
	"github.com/assetops/sga/internal/app/auth"
	"github.com/assetops/sga/internal/app/httpapi"
	"github.com/assetops/sga/internal/app/metrics"
	"github.com/assetops/sga/internal/app/storage/postgres"
	"github.com/assetops/sga/internal/config"
	"github.com/assetops/sga/internal/middleware"
	"github.com/assetops/sga/internal/platform/migrations"
	"github.com/assetops/sga/internal/web"
	"github.com/assetops/sga/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	staticDir := flag.String("static", "static", "directory served under /static/")
	flag.Parse()

	if v := os.Getenv("SGA_CONFIG"); v != "" && *configPath == "" {
		*configPath = v
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	if err := config.EnsureRuntimeDirs(); err != nil {
		log.WithError(err).Error("prepare runtime directories")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *sql.DB
	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err = sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		if cfg.Database.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).Error("ping database")
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}
		store := postgres.New(db)
		stores = app.Stores{
			Users:       store,
			Locations:   store,
			Purchases:   store,
			Assets:      store,
			Maintenance: store,
			Audits:      store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	application, err := app.New(stores, app.Options{
		LabelBaseURL:  cfg.Labels.BaseURL,
		QRSize:        cfg.Labels.QRSize,
		QRBorder:      cfg.Labels.QRBorder > 0,
		PerPage:       cfg.Paging.PerPage,
		MaxPerPage:    cfg.Paging.MaxPerPage,
		StaleAuditAge: 24 * time.Hour,
		FleetCounts:   metrics.SetFleetCount,
	}, metrics.SetFleetBookValue, log)
	if err != nil {
		log.WithError(err).Error("assemble application")
		os.Exit(1)
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := application.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("stop application")
		}
	}()

	var authMgr *auth.Manager
	if cfg.API.JWTSecret != "" && cfg.API.AdminUser != "" {
		authMgr = auth.NewManager(cfg.API.JWTSecret,
			time.Duration(cfg.API.JWTTTLMinutes)*time.Minute,
			[]auth.User{{Username: cfg.API.AdminUser, Password: cfg.API.AdminPassword, Role: "Admin"}})
	} else {
		log.Warn("SGA_JWT_SECRET or SGA_ADMIN_USER not set; login disabled")
	}

	var sinks []httpapi.AuditSink
	if cfg.API.AuditLogPath != "" {
		fileSink, err := httpapi.NewFileAuditSink(cfg.API.AuditLogPath)
		if err != nil {
			log.WithError(err).Error("open audit log file")
			os.Exit(1)
		}
		sinks = append(sinks, fileSink)
	}
	if db != nil {
		sinks = append(sinks, httpapi.NewPostgresAuditSink(db))
	}
	apiHandler := httpapi.NewHandlerWithSink(application, cfg.APITokens(), authMgr,
		cfg.API.AuditLogMax, httpapi.CombineAuditSinks(sinks...))

	webHandler, err := web.New(application, *staticDir, log)
	if err != nil {
		log.WithError(err).Error("build web handler")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer pingCancel()
			if err := db.PingContext(pingCtx); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", webHandler.Router())

	limiter := middleware.NewRateLimiter(cfg.API.RateLimit, cfg.API.RateBurst, log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.CORSOrigins())

	handler := metrics.InstrumentHandler(cors.Handler(limiter.Handler(mux)))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("sga server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", strings.ToUpper(sig.String())).Info("shutting down")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown")
	}
}
