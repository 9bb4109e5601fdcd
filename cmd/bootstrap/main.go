// Package main 系统初始化入口：建表、建集合、创建首个管理员
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"avangard-rag-api/internal/config"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/infrastructure/persistence/milvus"
	"avangard-rag-api/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 1. PostgreSQL 表结构
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}
	defer func() { _ = pgClient.Close() }()

	if err := pgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.User{},
		&entity.Organization{},
		&entity.Document{},
		&entity.QueryLog{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("PostgreSQL schema is up to date.")

	// 2. Milvus 集合与索引
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Fatalf("failed to init milvus: %v", err)
	}
	defer func() { _ = milvusClient.Close() }()

	vectorRepo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
	if err := vectorRepo.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure milvus collection: %v", err)
	}
	fmt.Printf("Milvus collection %s is ready.\n", cfg.Vector.Milvus.Collection)

	// 3. 首个管理员
	adminEmail := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@avangard.local"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}

	userRepo := postgres.NewUserRepository(pgClient)
	orgRepo := postgres.NewOrganizationRepository(pgClient)

	exists, err := userRepo.ExistsByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}
	if exists {
		fmt.Printf("Admin user %s already exists.\n", adminEmail)
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	fmt.Printf("Creating admin user: %s...\n", adminEmail)
	admin := entity.NewUser(adminEmail, "System Admin")
	admin.Role = entity.UserRoleAdmin
	if err := admin.SetPassword(adminPassword); err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	// 管理员与默认组织在同一事务中创建
	txMgr := postgres.NewTxManager(pgClient)
	err = txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := userRepo.Create(txCtx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		org := entity.NewOrganization("Default Organization", admin.ID)
		if err := orgRepo.Create(txCtx, org); err != nil {
			return fmt.Errorf("failed to create default organization: %w", err)
		}

		admin.OrganizationID = org.ID
		return userRepo.Update(txCtx, admin)
	})
	if err != nil {
		log.Fatalf("bootstrap transaction failed: %v", err)
	}

	fmt.Printf("Admin user created in organization %d.\n", admin.OrganizationID)
	fmt.Println("Bootstrap completed successfully.")
}
