package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"draftly/internal/auth"
	"draftly/internal/config"
	"draftly/internal/editor"
	"draftly/internal/export"
	"draftly/internal/handler"
	"draftly/internal/middleware"
	"draftly/internal/render"
	"draftly/internal/repository/postgres"
	postgresWorkspace "draftly/internal/repository/postgres/workspace"
	"draftly/internal/session"
	serviceWorkspace "draftly/internal/service/workspace"
	"draftly/internal/service/workspace/providers/anthropic"
	"draftly/internal/service/workspace/providers/lorem"
	"draftly/internal/storage"

	"draftly/internal/domain/models/workspace"
	wsrepo "draftly/internal/domain/repositories/workspace"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.OpenLogFile(cfg.LogDir, cfg.LogKeep)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()

	// Database
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected", "max_conns", 25, "min_conns", 5)

	repoConfig := postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	docRepo := postgresWorkspace.NewDocumentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Doc-type templates for new documents
	templates, err := serviceWorkspace.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load doc-type templates: %v", err)
	}

	docService := serviceWorkspace.NewDocumentService(docRepo, txManager, templates, logger)

	// Generation providers; the model prefix selects the provider
	registry := serviceWorkspace.NewProviderRegistry(lorem.NewProvider())
	if cfg.AnthropicAPIKey != "" {
		anthropicProvider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Anthropic provider: %v", err)
		}
		registry.Register(anthropicProvider)
	}
	generationService := serviceWorkspace.NewGenerationService(registry, cfg.GenerationModel, logger)
	logger.Info("generation configured", "model", cfg.GenerationModel)

	// Export pipeline (optional: send/resend fail cleanly without it)
	var exportService *export.Service
	if cfg.MinioEndpoint != "" {
		artifacts, err := storage.NewArtifactStore(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to connect artifact storage: %v", err)
		}
		exportService = export.NewService(docRepo, artifacts, render.New(), logger)
		logger.Info("artifact storage connected", "bucket", cfg.MinioBucket)
	} else {
		exportService = export.NewService(docRepo, nil, render.New(), logger)
		logger.Warn("artifact storage not configured; PDF export disabled")
	}

	// Editor lock (optional: without redis, sessions are process-local)
	var locker editor.Locker
	if cfg.RedisURL != "" {
		redisLocker, err := session.NewRedisLocker(cfg.RedisURL, session.DefaultLockTTL)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
		logger.Info("editor lock connected")
	}

	sessions := editor.NewManager(editor.ManagerConfig{
		Loader: &documentLoader{repo: docRepo},
		Persister: func(tenantID string) editor.Persister {
			return &contentPersister{repo: docRepo, tenantID: tenantID}
		},
		Statuses: func(tenantID string) editor.StatusPersister {
			return &statusPersister{repo: docRepo, tenantID: tenantID}
		},
		Exporter: func(tenantID string) editor.Exporter {
			if cfg.MinioEndpoint == "" {
				return nil
			}
			return &export.TenantExporter{Service: exportService, TenantID: tenantID}
		},
		Locker:   locker,
		Debounce: cfg.AutosaveDebounce,
		Logger:   logger,
	})

	docHandler := handler.NewWorkspaceDocumentHandler(docService, docRepo, exportService, logger)
	editorHandler := handler.NewEditorHandler(sessions, generationService, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Document CRUD
	mux.HandleFunc("GET /api/workspace-documents", docHandler.List)
	mux.HandleFunc("POST /api/workspace-documents", docHandler.Create)
	mux.HandleFunc("GET /api/workspace-documents/{id}", docHandler.Get)
	mux.HandleFunc("PATCH /api/workspace-documents/{id}", docHandler.Update)
	mux.HandleFunc("DELETE /api/workspace-documents/{id}", docHandler.Delete)
	mux.HandleFunc("POST /api/workspace-documents/{id}/duplicate", docHandler.Duplicate)
	mux.HandleFunc("PATCH /api/workspace-documents/{id}/content", docHandler.PatchContent)
	mux.HandleFunc("GET /api/workspace-documents/{id}/preview", docHandler.Preview)
	mux.HandleFunc("POST /api/workspace-documents/{id}/export/pdf", docHandler.ExportPDF)

	// Editor sessions
	mux.HandleFunc("POST /api/workspace-documents/{id}/open", editorHandler.Open)
	mux.HandleFunc("POST /api/workspace-documents/{id}/close", editorHandler.Close)
	mux.HandleFunc("GET /api/workspace-documents/{id}/save-state", editorHandler.SaveState)
	mux.HandleFunc("POST /api/workspace-documents/{id}/blocks", editorHandler.AddBlock)
	mux.HandleFunc("PATCH /api/workspace-documents/{id}/blocks/{blockID}", editorHandler.UpdateBlock)
	mux.HandleFunc("DELETE /api/workspace-documents/{id}/blocks/{blockID}", editorHandler.RemoveBlock)

	// AI actions
	mux.HandleFunc("POST /api/workspace-documents/{id}/ai/generate", editorHandler.Generate)
	mux.HandleFunc("POST /api/workspace-documents/{id}/ai/rewrite", editorHandler.Rewrite)
	mux.HandleFunc("POST /api/workspace-documents/{id}/ai/check", editorHandler.Check)
	mux.HandleFunc("POST /api/workspace-documents/{id}/ai/line-items", editorHandler.LineItems)

	// Lifecycle
	mux.HandleFunc("POST /api/workspace-documents/{id}/actions/{action}", editorHandler.Action)

	// Build middleware chain
	var root http.Handler = mux

	// Order: CORS → Recovery → Auth → Routes
	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		root = middleware.Auth(verifier)(root)
	} else {
		logger.Warn("JWKS_URL not set; using static dev auth")
		root = middleware.StaticAuth(cfg.DevUserID, cfg.DevTenantID)(root)
	}
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// documentLoader adapts the repository to the editor's load interface.
type documentLoader struct {
	repo wsrepo.DocumentRepository
}

func (l *documentLoader) Load(ctx context.Context, tenantID, docID string) (*workspace.Document, error) {
	return l.repo.GetByID(ctx, tenantID, docID)
}

// contentPersister is the autosave write path: every debounced or forced
// flush lands in PatchContent, which bumps the record version.
type contentPersister struct {
	repo     wsrepo.DocumentRepository
	tenantID string
}

func (p *contentPersister) Persist(ctx context.Context, docID string, model *workspace.DocModel) error {
	_, err := p.repo.PatchContent(ctx, p.tenantID, docID, model)
	return err
}

// statusPersister records lifecycle transition outcomes.
type statusPersister struct {
	repo     wsrepo.DocumentRepository
	tenantID string
}

func (p *statusPersister) PersistStatus(ctx context.Context, docID string, status workspace.Status, exportedURL *string) error {
	_, err := p.repo.UpdateStatus(ctx, p.tenantID, docID, status, exportedURL)
	return err
}
