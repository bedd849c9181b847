package main

import (
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type adminFlags struct {
	username string
	name     string
	email    string
	password string
}

func seedCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var admin adminFlags
	var skipProducts bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the catalog and optionally create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDatabase(cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			productRepo := repositories.NewGORMProductRepository(db)
			userRepo := repositories.NewGORMUserRepository(db)

			if !skipProducts {
				seedProducts(productRepo, logger)
			}
			if admin.username != "" {
				authService := services.NewAuthService(userRepo, cfg.JWTSecret, logger)
				if err := createAdmin(authService, admin); err != nil {
					return err
				}
				logger.Info("Admin account created", zap.String("username", admin.username))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&admin.username, "admin-username", "", "create an admin with this username")
	cmd.Flags().StringVar(&admin.name, "admin-name", "", "display name of the admin")
	cmd.Flags().StringVar(&admin.email, "admin-email", "", "email of the admin")
	cmd.Flags().StringVar(&admin.password, "admin-password", "", "password of the admin")
	cmd.Flags().BoolVar(&skipProducts, "skip-products", false, "do not insert the sample catalog")
	return cmd
}

func createAdmin(authService *services.AuthService, flags adminFlags) error {
	if flags.email == "" || len(flags.password) < 6 {
		return errors.New("--admin-email and a --admin-password of at least 6 characters are required")
	}
	user := &models.User{
		Username: flags.username,
		Name:     flags.name,
		Email:    flags.email,
		Password: flags.password,
	}
	if err := authService.RegisterAdmin(user); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// sampleProducts is the storefront's starter catalog.
func sampleProducts() []models.Product {
	return []models.Product{
		{Name: "Organic Ragi (Finger Millet)", Category: "Millets", Price: 85, Image: "/uploads/ragi.png",
			Description: "Nutrient-rich finger millet, perfect for porridge and traditional breakfast."},
		{Name: "Thinai (Foxtail Millet)", Category: "Millets", Price: 120, Image: "/uploads/thinai.png",
			Description: "Light foxtail millet for upma, pongal and everyday rice replacement."},
		{Name: "Kambu (Pearl Millet)", Category: "Millets", Price: 95, Image: "/uploads/kambu.png",
			Description: "Iron-rich pearl millet for koozh and rotis."},
		{Name: "Kuthiraivali (Barnyard Millet)", Category: "Millets", Price: 130, Image: "/uploads/kuthiraivali.png",
			Description: "High-fibre barnyard millet with a low glycemic index."},
		{Name: "Samai (Little Millet)", Category: "Millets", Price: 110, Image: "/uploads/samai.png",
			Description: "Little millet for khichdi and lemon rice."},
		{Name: "Cholam (Sorghum)", Category: "Millets", Price: 90, Image: "/uploads/cholam.png",
			Description: "Whole sorghum grains for rotis and dosa batter."},
		{Name: "Panivaragu (Proso Millet)", Category: "Millets", Price: 105, Image: "/uploads/panivaragu.png",
			Description: "Proso millet for sweet and savoury porridges."},
		{Name: "Karuppu Kavuni Rice (Black Rice)", Category: "Rice", Price: 240, Image: "/uploads/kavuni.png",
			Description: "Antioxidant-rich heritage black rice."},
		{Name: "Mapillai Samba Rice (Bridegroom Rice)", Category: "Rice", Price: 180, Image: "/uploads/mapillai-samba.png",
			Description: "Traditional red rice known for strength and stamina."},
		{Name: "Sivappu Arisi (Red Rice)", Category: "Rice", Price: 140, Image: "/uploads/sivappu-arisi.png",
			Description: "Unpolished red rice with its bran intact."},
	}
}

// seedProducts inserts the sample catalog, skipping names that already exist.
func seedProducts(repo repositories.ProductRepository, logger *zap.Logger) int {
	existing, err := repo.GetAll()
	if err != nil {
		logger.Error("Error reading catalog", zap.Error(err))
		return 0
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	created := 0
	products := sampleProducts()
	for i := range products {
		if seen[products[i].Name] {
			continue
		}
		if err := repo.Create(&products[i]); err != nil {
			logger.Error("Error seeding product", zap.String("name", products[i].Name), zap.Error(err))
			continue
		}
		logger.Info("Seeded product", zap.String("name", products[i].Name), zap.String("id", products[i].ID))
		created++
	}
	return created
}
