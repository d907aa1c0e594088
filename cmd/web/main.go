// cmd/web/main.go
//
// Sermonario – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (.env → app.yaml → SERMON_ env, vault: refs
//     resolved).  A missing session secret stops the process here.
//
//  2. Start the rotating JSON logger (tees to console in a TTY).
//
//  3. Optional GeoIP database for audit enrichment.
//
//  4. Open the database, run embedded migrations.
//
//  5. Build the access core: signature key → session codec → cookie store,
//     audit trail → resolver.
//
//  6. Build domain services and notification channels, mount every
//     registered component on a chi router.
//
//  7. Serve with timeouts; on SIGINT/SIGTERM drain requests, then wait for
//     in-flight notifications.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/blob"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/config"
	"github.com/yanizio/sermonario/internal/database"
	"github.com/yanizio/sermonario/internal/database/migrate"
	"github.com/yanizio/sermonario/internal/logger"
	"github.com/yanizio/sermonario/internal/marketplace"
	"github.com/yanizio/sermonario/internal/message"
	"github.com/yanizio/sermonario/internal/middleware"
	"github.com/yanizio/sermonario/internal/requestinfo"
	"github.com/yanizio/sermonario/internal/sermon"
	"github.com/yanizio/sermonario/internal/server"
	"github.com/yanizio/sermonario/internal/session"
	"github.com/yanizio/sermonario/internal/signature"

	_ "github.com/yanizio/sermonario/components/access"
	_ "github.com/yanizio/sermonario/components/marketplace"
	_ "github.com/yanizio/sermonario/components/sermons"
	_ "github.com/yanizio/sermonario/components/webhooks"
)

const (
	// shutdownGrace bounds how long in-flight requests may take after a signal.
	shutdownGrace = 20 * time.Second

	catalogCacheSize = 256
	catalogCacheTTL  = time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("sermonario: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	sugar, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
		Tee:   cfg.Log.Tee || logger.IsTTY(),
	})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = sugar.Sync() }()
	lg := sugar.Desugar()

	//
	// ── 3.  GeoIP (optional) ────────────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
		lg.Warn("geoip disabled", zap.Error(err))
	}
	defer requestinfo.CloseGeo()

	//
	// ── 4.  Database + migrations ───────────────────────────────────────
	//
	db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, cfg.Database.DSN, database.Options{
		MaxOpenConns: cfg.Database.MaxOpen,
		MaxIdleConns: cfg.Database.MaxIdle,
	})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Run(db.DB, cfg.Database.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	//
	// ── 5.  Access core ─────────────────────────────────────────────────
	//
	key, err := signature.NewKey(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("session key: %w", err)
	}
	codec, err := session.NewCodec(key)
	if err != nil {
		return err
	}
	sessions := session.NewStore(codec, session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Insecure:   !cfg.Session.SecureCookie(),
	})
	if !cfg.Session.SecureCookie() {
		lg.Warn("session cookie Secure attribute disabled")
	}
	auditor, err := access.NewAuditor(lg, key)
	if err != nil {
		return err
	}
	tokens := accesstoken.NewRepository(db, cfg.Database.Driver)
	resolver := access.NewResolver(tokens, auditor)

	//
	// ── 6.  Services, notifications, components ─────────────────────────
	//
	files, err := blob.New(ctx, cfg.Storage.S3, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return err
	}
	catalog := marketplace.NewCachedCatalog(
		marketplace.NewRepository(db, cfg.Database.Driver), catalogCacheSize, catalogCacheTTL)
	hc := message.NewHTTPClient(cfg.Notify.Timeout, lg)
	dispatcher := message.NewDispatcher(lg, cfg.Notify.Timeout)

	deps := component.Deps{
		Config:      cfg,
		Log:         lg,
		Sessions:    sessions,
		Access:      resolver,
		Tokens:      tokens,
		Sermons:     sermon.NewService(sermon.NewRepository(db, cfg.Database.Driver)),
		Marketplace: marketplace.NewService(catalog, resolver, files),
		Dispatcher:  dispatcher,
	}
	if n := cfg.Notify.Resend; n.APIKey != "" {
		deps.Email = message.NewResendEmail(hc, n.BaseURL, n.APIKey, n.From)
	} else {
		lg.Warn("email notifications disabled: notify.resend.api_key is empty")
	}
	if z := cfg.Notify.ZAPI; z.Instance != "" {
		deps.WhatsApp = message.NewZAPIWhatsApp(hc, z.BaseURL, z.Instance, z.Token, z.ClientToken)
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		requestinfo.Enrich,
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	if err := component.Mount(r, deps); err != nil {
		return err
	}

	//
	// ── 7.  Serve + graceful shutdown ───────────────────────────────────
	//
	srv := server.New(cfg.HTTP, r)
	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			lg.Error("http shutdown", zap.Error(err))
		}
	}
	dispatcher.Wait()
	lg.Info("stopped")
	return nil
}
