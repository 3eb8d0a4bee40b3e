// Package bootstrap assembles application dependencies.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"attachments-backend/internal/documents"
	"attachments-backend/internal/morph"
	"attachments-backend/internal/ocr"
	"attachments-backend/internal/queue"
	"attachments-backend/internal/shared/config"
	"attachments-backend/internal/shared/server"
	"attachments-backend/internal/shared/storage/db"
	"attachments-backend/internal/shared/storage/object"
	localstore "attachments-backend/internal/shared/storage/object/local"
	s3store "attachments-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Morph  *morph.Registry

	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	OCRService       *ocr.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := morph.ParseMap(cfg.Documents.MorphMap)
	if err != nil {
		return nil, fmt.Errorf("parse morph map: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		Morph:  registry,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("DM_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var repo documents.Repo
	if app.DB != nil {
		repo = &documents.PGRepo{DB: app.DB}
	} else {
		repo = documents.NewMemoryRepo()
	}

	docCfg := app.Config.Documents
	docSvc := &documents.Service{
		Repo:   repo,
		Store:  app.Store,
		Queue:  app.Queue,
		Morph:  app.Morph,
		Policy: documents.NewPolicy(docCfg.EditableTimeLimitHours),
		Uploads: object.UploadOptions{
			Folder:         docCfg.Folder,
			OptimizeImages: docCfg.OptimizeImages,
			ImageWidth:     docCfg.ImageWidth,
			ImageHeight:    docCfg.ImageHeight,
		},
		LoggableMorph: docCfg.LoggableMorph,
	}

	app.DocumentsRepo = repo
	app.DocumentsService = docSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.OCRService = &ocr.Service{Repo: repo, Store: app.Store}
}
