// Package main provides a CLI tool for seeding the database with initial data:
// the admin user, standard GST tax codes, common units and a default store.
package main

import (
	"context"
	"fmt"
	"os"

	"pharmacy/internal/config"
	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/auth"
	"pharmacy/internal/domain/catalogs/location"
	"pharmacy/internal/domain/catalogs/taxcode"
	"pharmacy/internal/domain/catalogs/uom"
	"pharmacy/internal/infrastructure/numerator"
	"pharmacy/internal/infrastructure/storage/postgres"
	"pharmacy/internal/infrastructure/storage/postgres/auth_repo"
	"pharmacy/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmacy/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)
	gen := numerator.New(pool)

	log.Info("connected to database")

	if err := seedAdminUser(ctx, txm, cfg.JWTSecret, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	taxes := taxcode.NewService(catalog_repo.NewTaxCodeRepo(txm), txm, gen)
	for _, t := range defaultTaxCodes() {
		if err := ensure(ctx, taxes.CatalogService, t, log); err != nil {
			log.Fatalw("failed to seed tax code", "code", t.Code, "error", err)
		}
	}

	uoms := uom.NewService(catalog_repo.NewUOMRepo(txm), txm, gen)
	for _, u := range defaultUOMs() {
		if err := ensure(ctx, uoms.CatalogService, u, log); err != nil {
			log.Fatalw("failed to seed unit", "code", u.Code, "error", err)
		}
	}

	locations := location.NewService(catalog_repo.NewLocationRepo(txm), txm, gen)
	store := location.NewLocation("MAIN", "Main Store", location.KindStore)
	if err := ensure(ctx, locations.CatalogService, store, log); err != nil {
		log.Fatalw("failed to seed default location", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txm *postgres.TxManager, jwtSecret string, log *logger.Logger) error {
	username := getEnv("ADMIN_USERNAME", "admin")
	password := getEnv("ADMIN_PASSWORD", "Admin123!")

	users := auth_repo.NewUserRepo(txm)
	exists, err := users.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "username", username)
		return nil
	}

	svc := auth.NewService(users, auth_repo.NewTokenRepo(txm), txm,
		auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret)), auth.DefaultServiceConfig())
	user, err := svc.Register(ctx, auth.RegisterRequest{
		Username: username,
		Password: password,
		FullName: "System Administrator",
		Role:     auth.RoleAdmin,
	})
	if err != nil {
		return err
	}
	log.Infow("admin user created", "username", user.Username, "user_id", user.ID)
	return nil
}

func defaultTaxCodes() []*taxcode.TaxCode {
	return []*taxcode.TaxCode{
		taxcode.NewTaxCode("GST0", "GST 0%", types.MustMoney("0")),
		taxcode.NewTaxCode("GST5", "GST 5%", types.MustMoney("5")),
		taxcode.NewTaxCode("GST12", "GST 12%", types.MustMoney("12")),
		taxcode.NewTaxCode("GST18", "GST 18%", types.MustMoney("18")),
		taxcode.NewTaxCode("GST28", "GST 28%", types.MustMoney("28")),
	}
}

func defaultUOMs() []*uom.UOM {
	return []*uom.UOM{
		uom.NewUOM("TAB", "Tablet", "tab"),
		uom.NewUOM("STRIP", "Strip", "strip"),
		uom.NewUOM("BOX", "Box", "box"),
		uom.NewUOM("BTL", "Bottle", "btl"),
		uom.NewUOM("ML", "Millilitre", "ml"),
	}
}

type coded interface {
	entity.Validatable
	GetCode() string
}

// ensure creates e unless a catalog entry with the same code already exists.
func ensure[T coded](ctx context.Context, svc *domain.CatalogService[T], e T, log *logger.Logger) error {
	if _, err := svc.GetByCode(ctx, e.GetCode()); err == nil {
		log.Infow("already seeded", "code", e.GetCode())
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}
	if err := svc.Create(ctx, e); err != nil {
		return err
	}
	log.Infow("seeded", "code", e.GetCode())
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
