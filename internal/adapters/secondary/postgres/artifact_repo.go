package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

type artifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepository(pool *pgxpool.Pool) ports.ArtifactRepository {
	return &artifactRepo{pool: pool}
}

func (r *artifactRepo) Create(ctx context.Context, rec *domain.ArtifactRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return domain.ErrInvalidArtifactID
	}
	rawRefsJSON, err := json.Marshal(rec.RawRefs)
	if err != nil {
		return fmt.Errorf("marshal raw refs: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO artifact
			(id, created_at, updated_at, kind, name, reference,
			 license, size_mb, size_known, raw_refs, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err = r.pool.Exec(ctx, query,
		id, rec.CreatedAt, rec.UpdatedAt,
		string(rec.Kind), rec.Name, rec.Reference,
		rec.License, rec.SizeMB, rec.SizeKnown,
		rawRefsJSON, metadataJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrArtifactConflict
		}
		return fmt.Errorf("create artifact: %w", err)
	}
	return nil
}

func (r *artifactRepo) GetByID(ctx context.Context, id string) (*domain.ArtifactRecord, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrArtifactNotFound
	}

	query := `
		SELECT id, created_at, updated_at, kind, name, reference,
			   license, size_mb, size_known, raw_refs, metadata
		FROM artifact
		WHERE id = $1
	`
	rec, err := scanArtifact(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact by id: %w", err)
	}
	return rec, nil
}

func (r *artifactRepo) GetByName(ctx context.Context, name string) ([]*domain.ArtifactRecord, error) {
	query := `
		SELECT id, created_at, updated_at, kind, name, reference,
			   license, size_mb, size_known, raw_refs, metadata
		FROM artifact
		WHERE lower(name) = lower($1)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("get artifacts by name: %w", err)
	}
	defer rows.Close()

	return collectArtifacts(rows)
}

// ResolveByName is the lookup behind dependency hints: an exact name
// match wins, then a record whose reference ends in the hinted path.
// A miss is (nil, nil), not an error.
func (r *artifactRepo) ResolveByName(ctx context.Context, name string, kind domain.ArtifactKind) (*domain.ArtifactRecord, error) {
	query := `
		SELECT id, created_at, updated_at, kind, name, reference,
			   license, size_mb, size_known, raw_refs, metadata
		FROM artifact
		WHERE kind = $1 AND lower(name) = lower($2)
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanArtifact(r.pool.QueryRow(ctx, query, string(kind), name))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve artifact by name: %w", err)
	}

	query = `
		SELECT id, created_at, updated_at, kind, name, reference,
			   license, size_mb, size_known, raw_refs, metadata
		FROM artifact
		WHERE kind = $1
			AND (lower(reference) = lower($2) OR lower(reference) LIKE '%/' || lower($2))
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err = scanArtifact(r.pool.QueryRow(ctx, query, string(kind), name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve artifact by reference: %w", err)
	}
	return rec, nil
}

func (r *artifactRepo) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.ArtifactRecord, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argPos))
		args = append(args, string(filter.Kind))
		argPos++
	}
	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("lower(name) = lower($%d)", argPos))
		args = append(args, filter.Name)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM artifact WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count artifacts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, kind, name, reference,
			   license, size_mb, size_known, raw_refs, metadata
		FROM artifact
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	recs, err := collectArtifacts(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *artifactRepo) Update(ctx context.Context, rec *domain.ArtifactRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return domain.ErrArtifactNotFound
	}
	rawRefsJSON, err := json.Marshal(rec.RawRefs)
	if err != nil {
		return fmt.Errorf("marshal raw refs: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		UPDATE artifact
		SET name=$1, license=$2, size_mb=$3, size_known=$4,
			raw_refs=$5, metadata=$6, updated_at=NOW()
		WHERE id=$7
	`
	result, err := r.pool.Exec(ctx, query,
		rec.Name, rec.License, rec.SizeMB, rec.SizeKnown,
		rawRefsJSON, metadataJSON, id,
	)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrArtifactNotFound
	}
	return nil
}

func (r *artifactRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrArtifactNotFound
	}

	result, err := r.pool.Exec(ctx, "DELETE FROM artifact WHERE id = $1", uid)
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrArtifactNotFound
	}
	return nil
}

func scanArtifact(row pgx.Row) (*domain.ArtifactRecord, error) {
	rec := &domain.ArtifactRecord{}
	var id uuid.UUID
	var kind string
	var rawRefsJSON, metadataJSON []byte

	err := row.Scan(
		&id, &rec.CreatedAt, &rec.UpdatedAt, &kind, &rec.Name, &rec.Reference,
		&rec.License, &rec.SizeMB, &rec.SizeKnown, &rawRefsJSON, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = id.String()
	rec.Kind = domain.ArtifactKind(kind)
	if len(rawRefsJSON) > 0 {
		if err := json.Unmarshal(rawRefsJSON, &rec.RawRefs); err != nil {
			return nil, fmt.Errorf("unmarshal raw refs: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return rec, nil
}

func collectArtifacts(rows pgx.Rows) ([]*domain.ArtifactRecord, error) {
	var recs []*domain.ArtifactRecord
	for rows.Next() {
		rec, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return recs, nil
}
