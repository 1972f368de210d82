package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kdimtricp/leafscan/internal/catalog"
)

// CatalogRepository serves reference signatures from the database. It
// implements catalog.Provider.
type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Seed loads datasets and signatures into empty tables. It reports whether
// anything was written; a populated catalog is left untouched.
func (r *CatalogRepository) Seed(ctx context.Context, datasets []catalog.Dataset, sigs []catalog.Signature) (bool, error) {
	var count int
	if err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM datasets").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count datasets: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	datasetIDs := make(map[string]int64, len(datasets))
	for _, ds := range datasets {
		crop := normalizeCrop(ds.CropType)
		var id int64
		err := tx.QueryRowContext(ctx,
			r.db.rebind("INSERT INTO datasets (name, crop_type, source) VALUES (?, ?, ?) RETURNING id"),
			ds.Name, crop, ds.Source,
		).Scan(&id)
		if err != nil {
			return false, fmt.Errorf("failed to insert dataset %s: %w", ds.Name, err)
		}
		datasetIDs[crop] = id
	}

	for _, sig := range sigs {
		datasetID, ok := datasetIDs[normalizeCrop(sig.CropType)]
		if !ok {
			return false, fmt.Errorf("signature %s references unknown crop %q", sig.Label, sig.CropType)
		}
		if err := r.insertSignature(ctx, tx, datasetID, sig); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}

func (r *CatalogRepository) insertSignature(ctx context.Context, tx *sql.Tx, datasetID int64, sig catalog.Signature) error {
	colorJSON, err := json.Marshal(sig.Color)
	if err != nil {
		return fmt.Errorf("failed to marshal colour features: %w", err)
	}
	textureJSON, err := json.Marshal(sig.Texture)
	if err != nil {
		return fmt.Errorf("failed to marshal texture features: %w", err)
	}

	var sampleID int64
	err = tx.QueryRowContext(ctx, r.db.rebind(`
		INSERT INTO disease_samples (dataset_id, label, name, description, severity, color_features, texture_features)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		datasetID, sig.Label, sig.Name, sig.Description, sig.Severity, string(colorJSON), string(textureJSON),
	).Scan(&sampleID)
	if err != nil {
		return fmt.Errorf("failed to insert disease sample %s: %w", sig.Label, err)
	}

	for _, t := range sig.Treatments {
		_, err := tx.ExecContext(ctx, r.db.rebind(`
			INSERT INTO treatments (sample_id, name, description, application_rate, effectiveness, eco_friendly)
			VALUES (?, ?, ?, ?, ?, ?)`),
			sampleID, t.Name, t.Description, t.ApplicationRate, t.Effectiveness, t.EcoFriendly,
		)
		if err != nil {
			return fmt.Errorf("failed to insert treatment %s for %s: %w", t.Name, sig.Label, err)
		}
	}
	return nil
}

func (r *CatalogRepository) Signatures(ctx context.Context, cropType string) ([]catalog.Signature, error) {
	crop := normalizeCrop(cropType)

	sigs, ids, err := r.samples(ctx, crop)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: %q", catalog.ErrNoCatalog, cropType)
	}

	treatments, err := r.treatments(ctx, crop)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		sigs[i].Treatments = treatments[id]
	}

	return sigs, nil
}

func (r *CatalogRepository) samples(ctx context.Context, crop string) ([]catalog.Signature, []int64, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(`
		SELECT s.id, s.label, s.name, s.description, s.severity, s.color_features, s.texture_features, d.crop_type
		FROM disease_samples s
		JOIN datasets d ON d.id = s.dataset_id
		WHERE d.crop_type = ?
		ORDER BY s.id`), crop)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query disease samples: %w", err)
	}
	defer rows.Close()

	var sigs []catalog.Signature
	var ids []int64
	for rows.Next() {
		var sig catalog.Signature
		var id int64
		var colorJSON, textureJSON []byte

		if err := rows.Scan(&id, &sig.Label, &sig.Name, &sig.Description, &sig.Severity, &colorJSON, &textureJSON, &sig.CropType); err != nil {
			return nil, nil, fmt.Errorf("failed to scan disease sample: %w", err)
		}
		if err := json.Unmarshal(colorJSON, &sig.Color); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal colour features of %s: %w", sig.Label, err)
		}
		if err := json.Unmarshal(textureJSON, &sig.Texture); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal texture features of %s: %w", sig.Label, err)
		}

		sigs = append(sigs, sig)
		ids = append(ids, id)
	}

	return sigs, ids, rows.Err()
}

func (r *CatalogRepository) treatments(ctx context.Context, crop string) (map[int64][]catalog.Treatment, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(`
		SELECT t.sample_id, t.name, t.description, t.application_rate, t.effectiveness, t.eco_friendly
		FROM treatments t
		JOIN disease_samples s ON s.id = t.sample_id
		JOIN datasets d ON d.id = s.dataset_id
		WHERE d.crop_type = ?
		ORDER BY t.id`), crop)
	if err != nil {
		return nil, fmt.Errorf("failed to query treatments: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]catalog.Treatment)
	for rows.Next() {
		var sampleID int64
		var t catalog.Treatment
		if err := rows.Scan(&sampleID, &t.Name, &t.Description, &t.ApplicationRate, &t.Effectiveness, &t.EcoFriendly); err != nil {
			return nil, fmt.Errorf("failed to scan treatment: %w", err)
		}
		out[sampleID] = append(out[sampleID], t)
	}

	return out, rows.Err()
}

func (r *CatalogRepository) Datasets(ctx context.Context) ([]catalog.Dataset, error) {
	rows, err := r.db.conn.QueryContext(ctx, "SELECT name, crop_type, source FROM datasets ORDER BY crop_type")
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []catalog.Dataset{}
	for rows.Next() {
		var ds catalog.Dataset
		if err := rows.Scan(&ds.Name, &ds.CropType, &ds.Source); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}

	return datasets, rows.Err()
}

func normalizeCrop(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}
