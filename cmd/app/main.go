package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/tixhub/tix-reservation/config"
	adminapp_event "github.com/tixhub/tix-reservation/internal/module/adminapp/event"
	customerapp_event "github.com/tixhub/tix-reservation/internal/module/customerapp/event"
	customerapp_reservation "github.com/tixhub/tix-reservation/internal/module/customerapp/reservation"
	"github.com/tixhub/tix-reservation/internal/pkg/eventcache"
	"github.com/tixhub/tix-reservation/internal/pkg/jwt"
	internalMiddleware "github.com/tixhub/tix-reservation/internal/pkg/middleware"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/pkg/applogger"
	"github.com/tixhub/tix-reservation/pkg/kafka"
	"github.com/tixhub/tix-reservation/pkg/middleware"
	"github.com/tixhub/tix-reservation/pkg/monitoring"
	"github.com/tixhub/tix-reservation/pkg/postgresql"
	"github.com/tixhub/tix-reservation/pkg/pubsub"
	"github.com/tixhub/tix-reservation/pkg/redis"
	"github.com/tixhub/tix-reservation/pkg/server"
	"github.com/tixhub/tix-reservation/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
	)

	if err := mon.Start(ctx); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	validate := validator.Get()

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.Secret)

	psqldb, err := postgresql.NewDatabase(postgresql.Option{
		DSN:             c.Postgres.DSN,
		MaxOpenConns:    c.Postgres.MaxOpenConns,
		MaxIdleConns:    c.Postgres.MaxIdleConns,
		ConnMaxLifetime: c.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		logger.WithContext(ctx).WithError(err).Fatal()
	}
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromKafkaWriter(logger, kafka.NewWriter(kafka.Option{
		Brokers: c.Kafka.Brokers,
	}))

	rc := redis.NewClient(redis.Option{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cache := eventcache.NewRedisCache(logger, rc, eventcache.Option{
		EventTTL:        c.Cache.EventTTL,
		EventListTTL:    c.Cache.EventListTTL,
		AvailabilityTTL: c.Cache.AvailabilityTTL,
	})

	sessionStore := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleware.NewCustomerSessionMiddleware(jsonWebToken, sessionStore)
	adminSessionMiddleware := internalMiddleware.NewAdminSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// admin's app
	adminappEventRepo := adminapp_event.NewEventRepository(logger, psqldb)
	adminappReservationRepo := adminapp_event.NewReservationRepository(logger, psqldb)
	adminappEventUseCase := adminapp_event.NewEventUseCase(adminapp_event.EventUseCaseProperty{
		Logger:                logger,
		Timeout:               c.Application.Timeout,
		EventRepository:       adminappEventRepo,
		ReservationRepository: adminappReservationRepo,
		Cache:                 cache,
	})
	adminapp_event.InitHTTPHandler(router, adminSessionMiddleware, validate, adminappEventUseCase)

	// customer's app
	customerappEventRepo := customerapp_event.NewEventRepository(logger, psqldb)
	customerappReservationRepo := customerapp_reservation.NewReservationRepository(logger, psqldb)
	customerappEventUseCase := customerapp_event.NewEventUseCase(customerapp_event.EventUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		EventRepository: customerappEventRepo,
		Cache:           cache,
	})
	customerapp_event.InitHTTPHandler(router, validate, customerappEventUseCase)

	customerappReservationUseCase := customerapp_reservation.NewReservationUseCase(customerapp_reservation.ReservationUseCaseProperty{
		Logger:                logger,
		Timeout:               c.Application.Timeout,
		HoldDuration:          c.Reservation.HoldDuration,
		EventRepository:       customerappEventRepo,
		ReservationRepository: customerappReservationRepo,
		Publisher:             publisher,
		Cache:                 cache,
	})
	customerapp_reservation.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappReservationUseCase)

	sweeper := customerapp_reservation.NewExpirySweeper(customerapp_reservation.ExpirySweeperProperty{
		Logger:                logger,
		Interval:              c.Reservation.SweepInterval,
		BatchSize:             c.Reservation.SweepBatchSize,
		EventRepository:       customerappEventRepo,
		ReservationRepository: customerappReservationRepo,
		Publisher:             publisher,
		Cache:                 cache,
	})
	go sweeper.Run(ctx)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	cancel()
	srv.Shutdown(context.Background())
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(context.Background())
}
