package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/auth"
	"github.com/ukydev/monument-map/internal/config"
	"github.com/ukydev/monument-map/internal/db"
	"github.com/ukydev/monument-map/internal/events"
	"github.com/ukydev/monument-map/internal/handlers"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Marker backend stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("Using the default JWT secret; set MONUMENTS_AUTH_JWT_SECRET in production")
	}
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		return err
	}

	users, markers, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.MQTT.Broker != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, nil)
		if err != nil {
			return err
		}
		publisher = mqttPublisher
	}
	defer publisher.Close()

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handlers.NewRouter(handlers.Deps{
			Auth:    authService,
			Users:   users,
			Markers: markers,
			Events:  publisher,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Server.Port,
			"storage": cfg.Storage,
			"mqtt":    cfg.MQTT.Broker != "",
		}).Info("Marker backend listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (db.UserCollection, db.MarkerCollection, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("Using in-memory storage; markers are lost on restart")
		store := db.NewMemoryStore()
		return store, store, func() {}, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, nil, err
	}
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
	return db.NewMongoUserCollection(database), db.NewMongoMarkerCollection(database), closeFn, nil
}
