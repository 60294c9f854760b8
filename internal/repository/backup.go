package repository

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/comunalve/factura-engine/internal/engine"
	"github.com/comunalve/factura-engine/internal/entity"
)

//go:embed backup_schema.json
var backupSchemaJSON []byte

var backupSchema = mustCompileBackupSchema()

func mustCompileBackupSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("backup_schema.json", bytes.NewReader(backupSchemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("backup_schema.json")
}

type backupFile struct {
	Invoices []*entity.Invoice `json:"invoices"`
}

// ValidateBackup checks a backup payload against the embedded schema without
// touching the store.
func ValidateBackup(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("backup is not valid JSON: %w", err)
	}
	if err := backupSchema.Validate(doc); err != nil {
		return fmt.Errorf("backup failed schema validation: %w", err)
	}
	return nil
}

// ImportBackup restores invoices from a validated backup payload. Records
// whose normalized RIF/number key already exists in the store are skipped, so
// re-importing the same backup is idempotent. Returns (imported, skipped).
func ImportBackup(ctx context.Context, repo InvoiceRepository, data []byte, logger *slog.Logger) (int, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateBackup(data); err != nil {
		return 0, 0, err
	}

	var backup backupFile
	if err := json.Unmarshal(data, &backup); err != nil {
		return 0, 0, fmt.Errorf("decode backup: %w", err)
	}

	existing, err := repo.ListInvoices(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load existing invoices: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, inv := range existing {
		seen[engine.NormalizeKey(inv.RIF, inv.InvoiceNumber)] = struct{}{}
	}

	imported, skipped := 0, 0
	for _, inv := range backup.Invoices {
		key := engine.NormalizeKey(inv.RIF, inv.InvoiceNumber)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		if err := repo.Save(ctx, inv); err != nil {
			return imported, skipped, fmt.Errorf("save invoice %q: %w", inv.InvoiceNumber, err)
		}
		seen[key] = struct{}{}
		imported++
	}

	logger.Info("backup imported", "imported", imported, "skipped", skipped)
	return imported, skipped, nil
}
