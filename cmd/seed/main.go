package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/auth"
	"github.com/langchou/fleetdesk/internal/config"
	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/repository"
)

// 开发环境种子数据：一名管理员、两名司机、三辆车及示例证件/维保记录
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()

	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)

	// 车辆
	vehicles := []*models.Vehicle{
		{RegistrationNumber: "AB-123-CD", Model: "Mercedes-Benz Classe E", Year: 2022},
		{RegistrationNumber: "EF-456-GH", Model: "BMW Série 5", Year: 2021},
		{RegistrationNumber: "IJ-789-KL", Model: "Audi A6", Year: 2023},
	}
	for _, v := range vehicles {
		if err := vehicleRepo.Create(ctx, v); err != nil {
			logger.Fatal("Failed to seed vehicle", zap.String("registration", v.RegistrationNumber), zap.Error(err))
		}
		logger.Info("Seeded vehicle", zap.Int64("id", v.ID), zap.String("registration", v.RegistrationNumber))
	}

	// 用户
	users := []struct {
		name     string
		email    string
		password string
		role     string
		vehicle  *models.Vehicle
	}{
		{"Admin", "admin@fleet.test", "password", models.RoleAdmin, nil},
		{"Jean Dupont", "jean@fleet.test", "password", models.RoleChauffeur, vehicles[0]},
		{"Marie Martin", "marie@fleet.test", "password", models.RoleChauffeur, vehicles[1]},
	}
	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			logger.Fatal("Failed to hash password", zap.Error(err))
		}
		user := &models.User{
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
		}
		if u.vehicle != nil {
			user.VehicleID = &u.vehicle.ID
		}
		if err := userRepo.Create(ctx, user); err != nil {
			logger.Fatal("Failed to seed user", zap.String("email", u.email), zap.Error(err))
		}
		logger.Info("Seeded user", zap.Int64("id", user.ID), zap.String("email", user.Email), zap.String("role", user.Role))
	}

	// 示例证件：第一辆车的三类证件，保险 20 天后到期
	now := time.Now()
	documents := []*models.Document{
		{VehicleID: vehicles[0].ID, Type: models.DocumentCarteGrise, ExpirationDate: now.AddDate(5, 0, 0)},
		{VehicleID: vehicles[0].ID, Type: models.DocumentAssurance, ExpirationDate: now.AddDate(0, 0, 20)},
		{VehicleID: vehicles[0].ID, Type: models.DocumentControleTechnique, ExpirationDate: now.AddDate(1, 0, 0)},
	}
	for _, d := range documents {
		if err := documentRepo.Create(ctx, d); err != nil {
			logger.Fatal("Failed to seed document", zap.String("type", d.Type), zap.Error(err))
		}
	}
	logger.Info("Seeded documents", zap.Int("count", len(documents)))

	// 示例维保：一条历史记录和一条 5 天后的提醒
	reminder := now.AddDate(0, 0, 5)
	maintenances := []*models.Maintenance{
		{
			VehicleID:       vehicles[0].ID,
			MaintenanceType: "Vidange",
			Description:     "Vidange moteur et remplacement du filtre à huile",
			Date:            now.AddDate(0, -6, 0),
		},
		{
			VehicleID:       vehicles[0].ID,
			MaintenanceType: "Révision",
			Description:     "Révision des 60 000 km",
			Date:            now.AddDate(0, 0, -10),
			ReminderDate:    &reminder,
		},
	}
	for _, m := range maintenances {
		if err := maintenanceRepo.Create(ctx, m); err != nil {
			logger.Fatal("Failed to seed maintenance", zap.String("type", m.MaintenanceType), zap.Error(err))
		}
	}
	logger.Info("Seeded maintenances", zap.Int("count", len(maintenances)))

	logger.Info("Seeding completed")
}
