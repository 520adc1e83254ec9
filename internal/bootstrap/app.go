package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"rag-backend/internal/catalog"
	"rag-backend/internal/chat"
	"rag-backend/internal/index"
	indexopenai "rag-backend/internal/index/openai"
	"rag-backend/internal/projects"
	"rag-backend/internal/reconcile"
	"rag-backend/internal/shared/config"
	"rag-backend/internal/shared/server"
	"rag-backend/internal/shared/storage/db"
	"rag-backend/internal/shared/storage/object"
	localstore "rag-backend/internal/shared/storage/object/local"
	s3store "rag-backend/internal/shared/storage/object/s3"
	"rag-backend/internal/voice"
	voicegoogle "rag-backend/internal/voice/google"
	voiceopenai "rag-backend/internal/voice/openai"
)

// App holds the wired dependencies behind the router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	CatalogRepo catalog.Repo
	Gateway     index.Gateway
	Store       object.ObjectStore
	Sessions    voice.SessionStore

	ProjectsService *projects.Service
	ChatService     *chat.Service
	ReconcileEngine *reconcile.Engine

	ProjectsHandler *projects.Handler
	ChatHandler     *chat.Handler
	VoiceHandler    *voice.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}
	return BuildWithGateway(cfg, gateway)
}

// BuildWithGateway is Build with the index gateway supplied by the caller.
// Tests use it to run the full HTTP surface against a fake remote index.
func BuildWithGateway(cfg config.Config, gateway index.Gateway) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, repo, err := buildCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions := buildSessions(cfg)

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		CatalogRepo: repo,
		Gateway:     gateway,
		Store:       store,
		Sessions:    sessions,
	}

	app.ProjectsService = &projects.Service{Catalog: repo, Gateway: gateway, Store: store}
	app.ChatService = &chat.Service{Catalog: repo, Gateway: gateway}
	app.ReconcileEngine = &reconcile.Engine{Catalog: repo, Gateway: gateway}

	app.ProjectsHandler = projects.NewHandler(app.ProjectsService, app.ReconcileEngine)
	app.ChatHandler = chat.NewHandler(app.ChatService)
	app.VoiceHandler = buildVoiceHandler(ctx, cfg, sessions)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		ProjectsHandler: app.ProjectsHandler,
		ChatHandler:     app.ChatHandler,
		VoiceHandler:    app.VoiceHandler,
	})

	return app, nil
}

// buildCatalog picks the catalog backend: Postgres when DATABASE_URL is set,
// the SQLite file otherwise, and in-memory repositories as the dev fallback
// when neither can be opened.
func buildCatalog(ctx context.Context, cfg config.Config) (*sql.DB, catalog.Repo, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err := db.ConnectPostgres(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return fallbackCatalog(cfg, err)
		}
		if err := db.RunMigrations(ctx, sqlDB, "postgres"); err != nil {
			sqlDB.Close()
			return fallbackCatalog(cfg, err)
		}
		return sqlDB, &catalog.PGRepo{DB: sqlDB}, nil
	}

	if strings.TrimSpace(cfg.DBPath) != "" {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err := db.ConnectSQLite(ctx, cfg.DBPath, opts)
		if err != nil {
			return fallbackCatalog(cfg, err)
		}
		if err := db.RunMigrations(ctx, sqlDB, "sqlite3"); err != nil {
			sqlDB.Close()
			return fallbackCatalog(cfg, err)
		}
		return sqlDB, &catalog.SQLiteRepo{DB: sqlDB}, nil
	}

	if isDevLike(cfg.Env) {
		log.Printf("bootstrap: no database configured; using in-memory catalog")
		return nil, catalog.NewMemoryRepo(), nil
	}
	return nil, nil, fmt.Errorf("DATABASE_URL or RAG_DB_PATH is required")
}

func fallbackCatalog(cfg config.Config, cause error) (*sql.DB, catalog.Repo, error) {
	if isDevLike(cfg.Env) {
		log.Printf("bootstrap: catalog database unavailable; using in-memory catalog: %v", cause)
		return nil, catalog.NewMemoryRepo(), nil
	}
	return nil, nil, cause
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSessions(cfg config.Config) voice.SessionStore {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return voice.NewMemorySessionStore()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return voice.NewRedisSessionStore(client)
}

func buildGateway(cfg config.Config) (index.Gateway, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; index gateway disabled")
			return index.Placeholder{}, nil
		}
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return indexopenai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GatewayTimeout)
}

// buildVoiceHandler wires the configured speech provider. A misconfigured
// provider disables the voice surface instead of failing startup; the rest
// of the API does not depend on it.
func buildVoiceHandler(ctx context.Context, cfg config.Config, sessions voice.SessionStore) *voice.Handler {
	var provider voice.Provider

	switch cfg.VoiceProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			log.Printf("bootstrap: voice provider openai needs OPENAI_API_KEY; voice routes disabled")
			return nil
		}
		provider = voiceopenai.NewClient(cfg.OpenAIAPIKey, cfg.GatewayTimeout)
	default:
		if strings.TrimSpace(cfg.GoogleCredentials) == "" {
			log.Printf("bootstrap: GOOGLE_APPLICATION_CREDENTIALS not set; voice routes disabled")
			return nil
		}
		credsJSON, err := os.ReadFile(cfg.GoogleCredentials)
		if err != nil {
			log.Printf("bootstrap: read google credentials failed; voice routes disabled: %v", err)
			return nil
		}
		client, err := voicegoogle.NewClient(ctx, credsJSON, cfg.GatewayTimeout)
		if err != nil {
			log.Printf("bootstrap: google voice client failed; voice routes disabled: %v", err)
			return nil
		}
		provider = client
	}

	return voice.NewHandler(provider, sessions, cfg.VoiceLanguage, cfg.VoiceName)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
