package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/config"
	"storefront/controllers"
	authmw "storefront/middleware"
	"storefront/repository"
	"storefront/routes"
	"storefront/services"
	"storefront/utils"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := utils.SetupLogger(cfg.Log, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}
	log.Info().Str("env", cfg.App.Env).Msg("Storefront starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from database")
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}

	products := repository.NewProductRepository(db, cfg.Mongo.Timeout)
	carts := repository.NewCartRepository(db, cfg.Mongo.Timeout)
	orders := repository.NewOrderRepository(db, cfg.Mongo.Timeout)
	reviews := repository.NewReviewRepository(db, cfg.Mongo.Timeout)
	wishlists := repository.NewWishlistRepository(db, cfg.Mongo.Timeout)
	users := repository.NewUserRepository(db, cfg.Mongo.Timeout)

	// Transactions need a replica set; without them order placement compensates.
	var tx services.Transactor
	if cfg.Mongo.Transactions {
		tx = repository.NewTransactor(client)
	}

	emailService := utils.NewEmailService(utils.NewSender(cfg.Mail), cfg.Mail.Sender, cfg.App.BaseURL)
	jwt := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expire)

	c := routes.Controllers{
		User:     controllers.NewUserController(services.NewAuthService(users, jwt, emailService)),
		Product:  controllers.NewProductController(services.NewCatalogService(products)),
		Cart:     controllers.NewCartController(services.NewCartService(carts, products)),
		Order:    controllers.NewOrderController(services.NewOrderService(orders, carts, products, users, emailService, tx)),
		Review:   controllers.NewReviewController(services.NewReviewService(reviews, products, orders)),
		Wishlist: controllers.NewWishlistController(services.NewWishlistService(wishlists, products)),
		Health: controllers.NewHealthController(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}),
	}

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, authmw.NewAuth(jwt, cfg.App.Env == "production"), c)
	handler := middleware.RequestID(middleware.RealIP(authmw.RequestLogger(middleware.Recoverer(router))))

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
