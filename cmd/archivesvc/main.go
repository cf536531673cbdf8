package main

import (
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/archivesvc/broker"
	"github.com/connect-squares/connect-services/internal/archivesvc/store"
	config "github.com/connect-squares/connect-services/configs"
	"github.com/connect-squares/connect-services/internal/db"
	"github.com/connect-squares/connect-services/internal/nats"
)

const SERVICE_NAME = "archive"

func init() {
	instanceId := "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// mongo connection
	mongoDB, cancel, err := db.ConnectToDB(os.Getenv("MONGODB_URI"))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer cancel()
	log.Printf("mongo connection established successfully")

	if err := db.CreateTTLIndexForCollection(mongoDB, "moves"); err != nil {
		log.Fatalf("Failed to create TTL index: %v", err)
	}

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// moves are kept for 90 days, final snapshots forever
	archiveStore := store.NewArchiveStore(mongoDB, 90*24*time.Hour)

	b := broker.NewBroker(n.Conn, archiveStore)
	sub, err := b.SubscribeGameEvents()
	if err != nil {
		log.Errorf("Error: unable to subscribe to game events %v", err)
		os.Exit(0)
	}

	log.Infof("%s service consuming game events", SERVICE_NAME)

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
