// Command seed loads the sneaker catalog into MongoDB, creates the admin
// account and applies price lists.
//
//	go run ./cmd/seed -catalog cmd/seed/products.yaml
//	go run ./cmd/seed -catalog "" -prices cmd/seed/prices.yaml
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"storefront/config"
	"storefront/repository"
	"storefront/services"
	"storefront/utils"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file")
	catalogPath := flag.String("catalog", "cmd/seed/products.yaml", "products file, empty to skip")
	pricesPath := flag.String("prices", "", "price list file, empty to skip")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := utils.SetupLogger(cfg.Log, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if *catalogPath != "" {
		if err := seedCatalog(ctx, products, *catalogPath); err != nil {
			log.Fatal().Err(err).Str("file", *catalogPath).Msg("Failed to seed catalog")
		}
	}
	if cfg.Admin.Email != "" {
		if err := seedAdmin(ctx, repository.NewUserRepository(db, cfg.Mongo.Timeout), cfg.Admin); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed admin")
		}
	}
	if *pricesPath != "" {
		if err := updatePrices(ctx, products, *pricesPath); err != nil {
			log.Fatal().Err(err).Str("file", *pricesPath).Msg("Failed to update prices")
		}
	}
}

func seedCatalog(ctx context.Context, repo *repository.ProductRepository, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := loadCatalog(f)
	if err != nil {
		return err
	}
	var inserted int
	for i := range catalog {
		created, err := repo.UpsertByName(ctx, &catalog[i])
		if err != nil {
			return err
		}
		if created {
			inserted++
		}
	}
	log.Info().Int("products", len(catalog)).Int("inserted", inserted).Msg("Catalog seeded")
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.UserRepository, admin config.AdminConfig) error {
	if utf8.RuneCountInString(admin.Password) < services.MinPasswordLength {
		log.Warn().Str("email", admin.Email).Msg("ADMIN_PASSWORD too short, admin not seeded")
		return nil
	}
	hash, err := services.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	if err := repo.UpsertAdmin(ctx, admin.Name, admin.Email, hash); err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("Admin account ready")
	return nil
}

func updatePrices(ctx context.Context, repo *repository.ProductRepository, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	prices, err := loadPrices(f)
	if err != nil {
		return err
	}
	for _, c := range prices {
		found, err := repo.SetPriceByName(ctx, c.Name, c.Price)
		if err != nil {
			return err
		}
		if !found {
			log.Warn().Str("product", c.Name).Msg("Product not found")
			continue
		}
		log.Info().Str("product", c.Name).Float64("price", c.Price).Msg("Price updated")
	}
	return nil
}
