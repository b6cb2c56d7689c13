// Command seed sets up the workspace_documents schema and fills it with
// sample documents for development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"draftly/internal/config"
	"draftly/internal/domain/models/workspace"
	"draftly/internal/repository/postgres"
	postgresWorkspace "draftly/internal/repository/postgres/workspace"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the documents table before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up the schema, don't seed sample documents")
	clearData := flag.Bool("clear-data", false, "Delete all documents (keep schema)")
	tenant := flag.String("tenant", "dev-tenant", "Tenant to seed documents into")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// Destructive flags are refused in production.
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("refusing --drop-tables / --clear-data in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	table := tables.WorkspaceDocuments

	if *dropTables {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
		logger.Info("table dropped", "table", table)
	}

	if err := createSchema(ctx, pool, table); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	logger.Info("schema ready", "table", table)

	if *clearData {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("documents cleared")
	}

	if *schemaOnly {
		return
	}

	repo := postgresWorkspace.NewDocumentRepository(postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	start := time.Now()
	for _, doc := range sampleDocuments(*tenant) {
		if err := repo.Create(ctx, doc); err != nil {
			log.Fatalf("Failed to seed document %q: %v", doc.Title, err)
		}
		logger.Info("document seeded", "title", doc.Title, "doc_type", doc.DocType)
	}
	logger.Info("seeding complete", "tenant", *tenant, "elapsed", time.Since(start))
}

func createSchema(ctx context.Context, pool *pgxpool.Pool, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id                TEXT PRIMARY KEY,
			tenant_id         TEXT NOT NULL,
			assistant_id      TEXT,
			title             TEXT NOT NULL,
			doc_type          TEXT NOT NULL,
			status            TEXT NOT NULL,
			content_json      JSONB NOT NULL,
			version           INTEGER NOT NULL,
			last_exported_url TEXT,
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[1]s_tenant_updated_idx
			ON %[1]s (tenant_id, updated_at DESC);`, table)
	_, err := pool.Exec(ctx, ddl)
	return err
}

func paragraph(text string) map[string]any {
	return map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

func sampleDocuments(tenantID string) []*workspace.Document {
	devis := workspace.NewDocModel()
	devis.Meta.Client = "Acme SARL"
	devis.Meta.Reference = "DEV-2026-001"
	devis.Blocks = []workspace.Block{
		workspace.BlockFromRaw(map[string]any{
			"id":      uuid.New().String(),
			"type":    workspace.BlockTypeRichText,
			"label":   "Introduction",
			"content": paragraph("Suite à notre échange, veuillez trouver ci-dessous notre proposition commerciale."),
		}),
		workspace.BlockFromRaw(map[string]any{
			"id":       uuid.New().String(),
			"type":     workspace.BlockTypeLineItems,
			"label":    "Prestations",
			"currency": "EUR",
			"items": []any{
				map[string]any{
					"id": uuid.New().String(), "description": "Développement du site vitrine",
					"quantity": 5, "unit": "jour", "unit_price": 600, "tax_rate": 20, "total": 3000,
				},
				map[string]any{
					"id": uuid.New().String(), "description": "Hébergement annuel",
					"quantity": 1, "unit": "forfait", "unit_price": 240, "tax_rate": 20, "total": 240,
				},
			},
		}),
		workspace.BlockFromRaw(map[string]any{
			"id":    uuid.New().String(),
			"type":  workspace.BlockTypeSignature,
			"label": "Signatures",
			"parties": []any{
				map[string]any{"name": "Acme SARL", "role": "Client"},
				map[string]any{"name": "Studio Draftly", "role": "Prestataire"},
			},
		}),
	}

	contrat := workspace.NewDocModel()
	contrat.Meta.Client = "Globex SAS"
	contrat.Blocks = []workspace.Block{
		workspace.BlockFromRaw(map[string]any{
			"id":      uuid.New().String(),
			"type":    workspace.BlockTypeClause,
			"label":   "Objet du contrat",
			"content": paragraph("Le présent contrat a pour objet la fourniture de prestations de conseil."),
		}),
		workspace.BlockFromRaw(map[string]any{
			"id":      uuid.New().String(),
			"type":    workspace.BlockTypeTerms,
			"label":   "Conditions générales",
			"content": paragraph("Toute facture est payable à trente jours. Tout retard entraîne des pénalités."),
		}),
	}

	return []*workspace.Document{
		{TenantID: tenantID, Title: "Devis site vitrine", DocType: "devis", Content: devis},
		{TenantID: tenantID, Title: "Contrat de prestation", DocType: "contrat", Content: contrat},
	}
}
