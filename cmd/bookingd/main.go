package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dcastilla/go-booking-register.git/internal/booking"
	"github.com/dcastilla/go-booking-register.git/internal/config"
	"github.com/dcastilla/go-booking-register.git/internal/filestore"
	"github.com/dcastilla/go-booking-register.git/internal/httpx"
	kafkax "github.com/dcastilla/go-booking-register.git/internal/kafka"
	"github.com/dcastilla/go-booking-register.git/internal/postgres"
	"github.com/dcastilla/go-booking-register.git/internal/redisx"
	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, cleanup, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer cleanup()

	// Event sink: Kafka when brokers are configured, otherwise discard.
	var sink booking.Sink = booking.NopSink{}
	var ksink *kafkax.Sink
	if len(cfg.KafkaBrokers) > 0 {
		pu := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicUnitsChanged, 256, log)
		pr := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicReservationsChanged, 256, log)
		pu.Start(ctx)
		pr.Start(ctx)
		ksink = &kafkax.Sink{Units: pu, Reservations: pr, Service: cfg.ServiceName}
		sink = ksink
	}

	store := booking.NewStore(provider, sink, log)
	if err := store.Start(ctx); err != nil {
		log.Fatalf("store start: %v", err)
	}

	router := httpx.NewRouter()
	bh := &httpx.BookingHandler{
		Store:    store,
		Validate: validator.New(),
		Log:      log,
	}
	bh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Infof("HTTP listening at %s (driver=%s)", cfg.HTTPAddr, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if ksink != nil {
		ksink.Close() // flush pending notifications
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func newProvider(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Provider, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "file":
		fs, err := filestore.New(cfg.DataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		st := &postgres.Store{DB: pool}
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return st, pool.Close, nil
	case "redis":
		rdb := redisx.New(cfg.RedisAddr)
		return &redisx.Store{RDB: rdb, Log: log}, func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
