package main

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/kashiyatra-booking/internal/config"
    "github.com/iliyamo/kashiyatra-booking/internal/database"
    "github.com/iliyamo/kashiyatra-booking/internal/handler"
    "github.com/iliyamo/kashiyatra-booking/internal/middleware"
    "github.com/iliyamo/kashiyatra-booking/internal/queue"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
    "github.com/iliyamo/kashiyatra-booking/internal/router"
    "github.com/iliyamo/kashiyatra-booking/internal/service"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("db open: %v", err)
    }
    defer db.Close()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("db migrate: %v", err)
    }

    rdb := config.NewRedisClient() // nil when Redis is unreachable
    if rdb != nil {
        defer rdb.Close()
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    packages := repository.NewPackageRepo(db)
    bookings := repository.NewBookingRepo(db)

    svc := &service.BookingService{
        Bookings: bookings,
        Packages: packages,
        Users:    users,
        IDs:      service.NewIDGenerator(cfg.BookingIDPrefix, bookingSequence(cfg, db, rdb)),
    }

    broker := config.LoadBrokerConfig()
    if broker.Enabled {
        pub := service.NewBrokerPublisher(broker.URL)
        defer pub.Close()
        svc.Events = pub

        consumer := queue.NewConsumer(broker.URL)
        consumer.LogPath = cfg.BookingLogPath
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                log.Printf("booking-consumer: stopped: %v", err)
            }
        }()
    }

    e := echo.New()
    e.HideBanner = true
    e.HTTPErrorHandler = handler.ErrorHandler(cfg.IsDevelopment())

    e.Use(echomw.Recover())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: func() string { return uuid.NewString() },
    }))
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            log.Printf("http: %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
            return nil
        },
    }))
    e.Use(echomw.Secure())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     []string{cfg.ClientURL},
        AllowCredentials: true,
    }))
    e.Use(echomw.Gzip())
    e.Use(echomw.BodyLimit(cfg.BodyLimit))
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cacheCfg := config.LoadCacheConfig()
    ph := handler.NewPackageHandler(packages, func(ctx context.Context) {
        middleware.InvalidateCache(ctx, cacheCfg, rdb)
    })

    router.RegisterRoutes(e, &handler.HealthHandler{Env: cfg.Env, Ping: db.PingContext})
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    cache := middleware.NewRedisCache(cacheCfg, rdb)
    router.RegisterPackages(e, ph, cfg.JWTSecret, cache)
    router.RegisterExperiences(e, handler.NewExperienceHandler(repository.NewExperienceRepo(db)), cache)
    router.RegisterBookings(e, handler.NewBookingHandler(svc, packages), cfg.JWTSecret)

    addr := ":" + cfg.Port
    go func() {
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}

// bookingSequence picks the counter behind booking identifiers.  Redis
// falls back to MySQL when no client is available.
func bookingSequence(cfg config.Config, db *sql.DB, rdb *redis.Client) service.Sequence {
    switch cfg.BookingSequence {
    case config.SequenceRedis:
        if rdb != nil {
            return &service.RedisSequence{Client: rdb, Key: "ky:booking:seq"}
        }
        log.Printf("booking: redis unavailable, using mysql sequence")
    case config.SequenceMemory:
        return service.NewMemorySequence(0)
    }
    return repository.NewSequenceRepo(db, database.BookingSequenceName)
}
