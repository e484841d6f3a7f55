package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/plug/fuel-api/internal/config"
	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/domain/promo"
	"github.com/plug/fuel-api/internal/middleware"
	"github.com/plug/fuel-api/internal/pkg/codehash"
	"github.com/plug/fuel-api/internal/pkg/database"
	"github.com/plug/fuel-api/internal/pkg/jwt"
	"github.com/plug/fuel-api/internal/pkg/locker"
	"github.com/plug/fuel-api/internal/pkg/logger"
	"github.com/plug/fuel-api/internal/pkg/metrics"
	pkgresponse "github.com/plug/fuel-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logCloser := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
		Service:     "fuel-api",
	})
	defer logCloser.Close()

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting PLUG Fuel API")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	hasher, err := codehash.New(cfg.PromoCodePepper)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PROMO_CODE_PEPPER")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	creditsRepo := fuel.NewRepository(db).WithTimeout(cfg.DBQueryTimeout)
	promoRepo := promo.NewRepository(db, creditsRepo).WithTimeout(cfg.DBQueryTimeout)

	// ---------- Services ----------
	userLocks := locker.New(redis, cfg.LockExpiry)
	fuelService := fuel.NewService(creditsRepo, fuel.NewBalanceCache(redis, cfg.BalanceCacheTTL), userLocks)
	promoService := promo.NewService(promoRepo, fuelService, hasher, userLocks)

	// ---------- Workers ----------
	var refillWorker *fuel.RefillWorker
	if cfg.RefillEnabled {
		refillWorker, err = fuel.NewRefillWorker(fuelService, cfg.RefillCron)
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefillCron).Msg("Invalid REFILL_CRON")
		}
		refillWorker.Start()
	}

	r := newRouter(routerDeps{
		fuel:           fuel.NewHandler(fuelService),
		promo:          promo.NewHandler(promoService),
		jwt:            jwtService,
		allowedOrigins: cfg.AllowedOrigins,
		ping:           db.PingContext,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refillWorker != nil {
		refillWorker.Stop(10 * time.Second)
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routerDeps struct {
	fuel           *fuel.Handler
	promo          *promo.Handler
	jwt            *jwt.Service
	allowedOrigins []string
	ping           func(ctx context.Context) error
}

func newRouter(d routerDeps) chi.Router {
	authMiddleware := middleware.Auth(d.jwt)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.ping(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				pkgresponse.ServiceUnavailable(w, "database unavailable")
				return
			}
		}
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.Handle("/metrics", metrics.Handler())

	// Function-compatible endpoints called by the web client
	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.FunctionAuth(d.jwt))
		r.Post("/deduct-credits", d.fuel.DeductCredits)
		r.Post("/redeem-promo-code", d.promo.Redeem)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/credits", d.fuel.Routes(authMiddleware))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Mount("/credits", d.fuel.AdminRoutes(authMiddleware))
		r.Mount("/promo-codes", d.promo.AdminRoutes(authMiddleware))
	})

	return r
}
