package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/handler"
	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/ledger/memledger"
	"github.com/iliyamo/restaurant-booking/internal/live"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/queue"
	"github.com/iliyamo/restaurant-booking/internal/repository"
	"github.com/iliyamo/restaurant-booking/internal/router"
	"github.com/iliyamo/restaurant-booking/internal/service"
	"github.com/iliyamo/restaurant-booking/internal/session"
	"github.com/iliyamo/restaurant-booking/internal/telemetry"
	"github.com/iliyamo/restaurant-booking/internal/web"
)

const serviceName = "restaurant-booking"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; using system environment")
	}
	cfg := config.Load()
	ledgerCfg := config.LoadLedgerConfig()
	bookingCfg := config.LoadBookingConfig()
	sessionCfg := config.LoadSessionConfig()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	brokerCfg := config.LoadBrokerConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(serviceName)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(sctx)
	}()

	// ---- ledger ----
	gw := openLedger(ctx, ledgerCfg, bookingCfg.VenueName)
	defer gw.Close()

	// ---- MySQL: admin accounts ----
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := admins.EnsureSeed(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		switch {
		case err != nil:
			log.Printf("admin seed: %v", err)
		case created:
			log.Printf("admin seed: created %s", cfg.AdminEmail)
		}
	}

	// ---- Redis: sessions, locks, rate limit, cache ----
	rdb := config.NewRedisClient()
	var (
		store  session.Store
		locker middleware.Locker
	)
	if rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, sessionCfg.Prefix, sessionCfg.TTL)
		locker = session.NewRedisLocker(rdb, sessionCfg.LockPrefix, sessionCfg.LockTTL)
		log.Printf("redis: connected; sessions and locks are shared")
	} else {
		store = session.NewMemoryStore(sessionCfg.TTL)
		locker = session.NewMemoryLocker()
		log.Printf("redis: unavailable; sessions and locks are kept in process")
	}

	// ---- domain ----
	capacity := booking.Capacity{
		PerTableMax: bookingCfg.PerTableMax,
		Tables:      bookingCfg.Tables,
		Slots:       bookingCfg.Timeslots,
	}
	flow := booking.NewFlow(gw, capacity, ledgerCfg.VenueID, locker)
	adminSvc := service.NewAdmin(gw, ledgerCfg.VenueID, capacity)
	hub := live.New()
	var publisher service.BookingPublisher
	if brokerCfg.Enabled {
		publisher = queue.Publisher{URL: brokerCfg.URL, Queue: brokerCfg.Queue}
		consumer := queue.Consumer{URL: brokerCfg.URL, Queue: brokerCfg.Queue, LogDir: brokerCfg.LogDir}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking-consumer: stopped: %v", err)
			}
		}()
	}
	events := service.NewEvents(publisher, hub)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Renderer = web.NewRenderer()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	sessions := middleware.Sessions(sessionCfg, store, locker)
	limit := middleware.NewTokenBucket(rlCfg, rdb)
	invalidate := func(ctx context.Context) { middleware.InvalidateCache(ctx, cacheCfg, rdb) }

	router.RegisterRoutes(e, gw)
	router.RegisterPages(e, &handler.PagesHandler{
		Capacity:    capacity,
		Admin:       adminSvc,
		Venues:      gw,
		Accounts:    gw,
		VenueID:     ledgerCfg.VenueID,
		DefaultName: bookingCfg.VenueName,
		ReadTimeout: ledgerCfg.CallTimeout,
	}, sessions)
	router.RegisterBooking(e, handler.NewBookingHandler(flow, gw, events, ledgerCfg.CallTimeout, ledgerCfg.TxTimeout, invalidate), sessions, limit)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins, tokens), cfg.JWTSecret, limit)
	router.RegisterAdmin(e, handler.NewAdminHandler(adminSvc, ledgerCfg.CallTimeout, ledgerCfg.TxTimeout, invalidate), cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterLive(e, handler.NewLiveHandler(hub, ledgerCfg.VenueID))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Printf("listening on %s (env=%s, venue=%d)", server.Addr, cfg.Env, ledgerCfg.VenueID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openLedger connects to the contract, or starts the in-process one for
// LEDGER_URL=memory://.  The in-process contract is seeded with the venue
// so the pages work out of the box.
func openLedger(ctx context.Context, cfg config.LedgerConfig, venueName string) *ledger.Gateway {
	opts := []ledger.Option{ledger.WithConcurrency(cfg.FetchConcurrency)}
	if cfg.InMemory() {
		gw := ledger.NewGateway(memledger.New(), opts...)
		for i := uint64(0); i < cfg.VenueID; i++ {
			if _, err := gw.CreateVenue(ctx, venueName); err != nil {
				log.Fatalf("ledger: seed venue: %v", err)
			}
		}
		log.Printf("ledger: using in-process contract")
		return gw
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()
	backend, err := ledger.DialEth(dctx, ledger.EthConfig{
		URL:        cfg.URL,
		Contract:   cfg.Contract,
		PrivateKey: cfg.PrivateKey,
	})
	if err != nil {
		log.Fatalf("ledger: dial %s: %v", cfg.URL, err)
	}
	gw := ledger.NewGateway(backend, opts...)
	if account, ok := gw.CurrentAccount(dctx); ok {
		log.Printf("ledger: connected to %s as %s", cfg.URL, account.Hex())
	} else {
		log.Printf("ledger: connected to %s without an account; bookings are read-only", cfg.URL)
	}
	return gw
}
