package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/connect-squares/connect-services/configs"
	"github.com/connect-squares/connect-services/internal/gamesvc/broker"
	svcconfig "github.com/connect-squares/connect-services/internal/gamesvc/config"
	"github.com/connect-squares/connect-services/internal/gamesvc/db"
	handlers "github.com/connect-squares/connect-services/internal/gamesvc/handlers"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
	"github.com/connect-squares/connect-services/internal/gamesvc/store"
	nats "github.com/connect-squares/connect-services/internal/nats"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbpool.Close()
	log.Printf("pg connection established successfully")

	ctx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	cancelBoot()

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	pg := store.NewPostgres(dbpool)
	balanceService := service.NewBalanceService(pg)
	metadataService := service.NewMetadataService(pg)

	// the broker doubles as the game event publisher
	b := broker.NewBroker(n.Conn, nil, balanceService)
	gameService := service.NewGameService(pg, service.SystemClock{}, b)
	b.GameService = gameService

	// subscribe to socket service read requests
	sub, err := b.SubscribSocketService(broker.SubjectSocketRequests)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(gameService, metadataService, balanceService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
