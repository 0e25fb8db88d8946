package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"canteen-be/internal/checkout"
	"canteen-be/internal/config"
	"canteen-be/internal/db"
	"canteen-be/internal/httpapi"
	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/mirror"
	"canteen-be/internal/notify"
	"canteen-be/internal/order"
	"canteen-be/internal/payment"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg)
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	storage, err := mirror.NewFileStorage(cfg.MirrorDir)
	if err != nil {
		log.Fatalf("failed to open mirror storage: %v", err)
	}

	orderRepo := order.NewRepository(database)
	mirrorCache := mirror.NewCache(storage, orderRepo)

	local := notify.NewLocalTransport()
	bus := notify.NewBus(
		notify.NewPostgresTransport(database),
		notify.NewRedisTransport(rdb),
		local,
	)

	orderSvc := order.NewService(orderRepo, bus)

	menuRepo := menu.NewRepository(database)
	menuSvc := menu.NewService(menuRepo)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.SuccessURL, cfg.CancelURL)
	draftRepo := checkout.NewDraftRepository(database)
	checkoutSvc := checkout.NewService(menuSvc, orderRepo, draftRepo, gateway, mirrorCache, bus, cfg.MinOrderAmount*100)

	hub := notify.NewHub()

	// Fan in every change source: pg LISTEN/NOTIFY, redis broadcast,
	// in-process publishes.
	events := make(chan notify.Event, 64)

	listener := db.NewListener(cfg, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Named("feed").Warn("listener event", zap.Error(err))
		}
	})
	feed := notify.NewFeed(listener)
	go func() {
		if err := feed.Run(ctx, events); err != nil {
			logger.Named("feed").Error("change feed stopped", zap.Error(err))
		}
	}()

	go notify.RunBroadcastWorker(ctx, rdb, events)

	localCh, cancelLocal := local.Subscribe()
	defer cancelLocal()

	pollerEvents := make(chan notify.Event, 64)
	go func() {
		defer close(pollerEvents)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				hub.Broadcast(ev)
				select {
				case pollerEvents <- ev:
				default:
				}
			case ev, ok := <-localCh:
				if !ok {
					return
				}
				hub.Broadcast(ev)
				select {
				case pollerEvents <- ev:
				default:
				}
			}
		}
	}()

	// Both the tick and every bus event drive the same mirror refresh,
	// so staleness is bounded by the poll interval even if every
	// notification channel is down.
	refresh := func(ctx context.Context) {
		for _, status := range []order.Status{order.StatusPending, order.StatusAccepted, order.StatusDelivered} {
			if _, err := mirrorCache.ListByStatus(ctx, status); err != nil {
				logger.Named("poller").Warn("mirror refresh failed", zap.Error(err))
			}
		}
	}
	poller := notify.NewPoller(cfg.PollInterval, pollerEvents, refresh)
	go poller.Run(ctx)

	handler := httpapi.NewHandler(orderSvc, checkoutSvc, menuSvc, mirrorCache, hub)
	router := httpapi.NewRouter(handler, []byte(cfg.JWTSecret), cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.L().Info("canteen server listening", zap.String("port", cfg.AppPort))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
