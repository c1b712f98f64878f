package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/types"
  "github.com/taskchat-org/taskchat-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  //1) Get and Set Environment Variables
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "taskchat", log)

  //2) Construct DSN From Environment Variables
  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  //3) Attempt DB Connection
  serviceLog.Info("Attempting to connect to Postgres DB now...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres DB", "error", err)
    return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
  }

  //4) Enable uuid-ossp Extension
  if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
  }

  serviceLog.Info("Postgres connection established")
  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")

  err := s.db.AutoMigrate(
    &types.User{},
    &types.Task{},
    &types.Conversation{},
    &types.Message{},
  )
  if err != nil {
    s.log.Error("AutoMigrateAll failed", "error", err)
    return err
  }

  s.log.Info("Configuring Foreign Key Relationships now...")
  // -- Task.user_id => user.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
    ALTER TABLE "task"
    DROP CONSTRAINT IF EXISTS "fk_task_user_id",
    ADD CONSTRAINT "fk_task_user_id"
    FOREIGN KEY ("user_id")
    REFERENCES "user"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_task_user_id: %w", err)
  }
  // -- Conversation.user_id => user.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
    ALTER TABLE "conversation"
    DROP CONSTRAINT IF EXISTS "fk_conversation_user_id",
    ADD CONSTRAINT "fk_conversation_user_id"
    FOREIGN KEY ("user_id")
    REFERENCES "user"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_conversation_user_id: %w", err)
  }
  // -- Message.conversation_id => conversation.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
    ALTER TABLE "message"
    DROP CONSTRAINT IF EXISTS "fk_message_conversation_id",
    ADD CONSTRAINT "fk_message_conversation_id"
    FOREIGN KEY ("conversation_id")
    REFERENCES "conversation"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_message_conversation_id: %w", err)
  }

  s.log.Info("AutoMigrateAll completed successfully")
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
