package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/bus"
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/jobs"
	"sponsorhub/internal/lifecycle"
	"sponsorhub/internal/mailer"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/platform/config"
	"sponsorhub/internal/platform/httpserver"
	"sponsorhub/internal/platform/logger"
	"sponsorhub/internal/platform/metrics"
	"sponsorhub/internal/platform/postgres"
	redisplatform "sponsorhub/internal/platform/redis"
	"sponsorhub/internal/queue"
	"sponsorhub/internal/records"
	"sponsorhub/internal/review"
	"sponsorhub/internal/token"
	httptransport "sponsorhub/internal/transport/http"
)

// recordsStore is what a record store must provide to serve every consumer
// in this process. Both the memory and Postgres stores satisfy it.
type recordsStore interface {
	review.Store
	jobs.Records
	lifecycle.Records
}

// main wires dependencies and supervises the server plus the background
// pipeline. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("sponsorhub exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		recStore   recordsStore
		auditStore audit.Store
		emailStore emaillog.Store
		notifStore notification.Store
	)
	if db != nil {
		recStore = records.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		emailStore = emaillog.NewPostgres(db)
		notifStore = notification.NewPostgres(db)
	} else {
		recStore = records.NewMemory()
		auditStore = audit.NewMemoryStore()
		emailStore = emaillog.NewMemoryStore()
		notifStore = notification.NewMemoryStore()
		log.Warn("postgres not configured, using in-memory stores")
	}

	var backend queue.Backend
	if rdb != nil {
		backend = queue.NewRedis(rdb, cfg.Queue)
	} else {
		backend = queue.NewMemory(cfg.Queue)
		log.Warn("redis not configured, using in-memory job queue")
	}

	emailQueue := queue.New(backend, queue.QueueEmail, cfg.Queue,
		queue.WithLogger(log), queue.WithMetrics(m))
	notificationQueue := queue.New(backend, queue.QueueNotifications, cfg.Queue,
		queue.WithLogger(log), queue.WithMetrics(m))

	eventBus := bus.New(log, 0)
	producer := jobs.NewProducer(emailQueue, notificationQueue, log)
	eventBus.Subscribe(producer)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := bus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3); err != nil {
			return err
		}
		eventBus.Subscribe(publisher)

		// Remote events feed the same producer; the queue's job IDs make
		// locally published duplicates collapse.
		consumer, err := bus.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, producer, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return consumer.Run(ctx) })
	}

	g.Go(func() error { return eventBus.Run(ctx) })

	var sender mailer.Sender = mailer.NewLogSender(log)
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTP(cfg.SMTP)
	} else {
		log.Warn("smtp not configured, email delivery runs in log-only mode")
	}
	loggedSender := mailer.NewLoggingSender(sender, emailStore, log, m)

	emailWorker := queue.NewWorker(backend, queue.QueueEmail,
		jobs.NewEmailProcessor(recStore, loggedSender, log), cfg.Queue,
		queue.WithLogger(log), queue.WithMetrics(m))
	notificationWorker := queue.NewWorker(backend, queue.QueueNotifications,
		jobs.NewNotificationProcessor(notifStore, recStore, log, m), cfg.Queue,
		queue.WithLogger(log), queue.WithMetrics(m))
	g.Go(func() error { return emailWorker.Run(ctx) })
	g.Go(func() error { return notificationWorker.Run(ctx) })

	recorder := audit.NewRecorder(auditStore, log)
	reviewOpts := []review.Option{review.WithLogger(log)}
	if rdb != nil {
		reviewOpts = append(reviewOpts, review.WithCache(review.NewRedisCache(rdb, log)))
	}
	reviewSvc := review.NewService(recStore, recorder, eventBus, reviewOpts...)
	lifecycleSvc := lifecycle.NewService(recStore, auditStore, emailStore, notifStore,
		lifecycle.WithLogger(log), lifecycle.WithMetrics(m))

	tokens := token.NewService(cfg.JWTSigningKey)
	handler := httptransport.NewHandler(lifecycleSvc, reviewSvc, notifStore, log)
	router := httptransport.NewRouter(handler, tokens, log)

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("starting sponsorhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
