package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/veridex/riskengine/internal/domain/model"
	pkgpostgres "github.com/veridex/riskengine/pkg/postgres"
)

// AuditChain implements port.AuditChain on PostgreSQL. Append locks the chain
// head row inside a transaction, which linearizes writers across instances.
type AuditChain struct {
	pool *pgxpool.Pool
}

// NewAuditChain creates a PostgreSQL-backed audit chain.
func NewAuditChain(pool *pgxpool.Pool) *AuditChain {
	return &AuditChain{pool: pool}
}

// appendBackoff bounds retries on serialization conflicts between instances.
func appendBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewFibonacci(50*time.Millisecond))
}

// Append seals the record against the persisted head and inserts it. The
// insert is retried on transient conflicts; the sealed record is returned.
func (c *AuditChain) Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	var sealed model.AuditRecord

	err := retry.Do(ctx, appendBackoff(), func(ctx context.Context) error {
		result, err := c.appendOnce(ctx, rec)
		if err != nil {
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		sealed = result
		return nil
	})
	if err != nil {
		return model.AuditRecord{}, fmt.Errorf("failed to append audit record: %w", err)
	}
	return sealed, nil
}

func (c *AuditChain) appendOnce(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	var sealed model.AuditRecord

	err := pkgpostgres.WithTransaction(ctx, c.pool, func(tx pgx.Tx) error {
		// Lock the head row so concurrent appends serialize.
		var prev *model.AuditRecord
		var payload []byte
		err := tx.QueryRow(ctx,
			`SELECT record FROM audit_records ORDER BY sequence DESC LIMIT 1 FOR UPDATE`,
		).Scan(&payload)
		switch {
		case err == nil:
			var head model.AuditRecord
			if err := json.Unmarshal(payload, &head); err != nil {
				return fmt.Errorf("failed to decode chain head: %w", err)
			}
			prev = &head
		case errors.Is(err, pgx.ErrNoRows):
			// Empty chain; the record anchors to genesis.
		default:
			return fmt.Errorf("failed to read chain head: %w", err)
		}

		sealed = rec.Seal(prev)
		body, err := json.Marshal(sealed)
		if err != nil {
			return fmt.Errorf("failed to encode audit record: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO audit_records (sequence, scan_id, hash, prev_hash, recorded_at, record)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sealed.Sequence, sealed.ScanID, sealed.Hash, sealed.PrevHash, sealed.RecordedAt, body,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.AuditRecord{}, err
	}
	return sealed, nil
}

// Page reads records with sequence greater than after, oldest first.
func (c *AuditChain) Page(ctx context.Context, after uint64, limit int) ([]model.AuditRecord, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT record FROM audit_records WHERE sequence > $1 ORDER BY sequence ASC LIMIT $2`,
		after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		var rec model.AuditRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit records: %w", err)
	}
	return records, nil
}

// Head returns the most recent record, or nil for an empty chain.
func (c *AuditChain) Head(ctx context.Context) (*model.AuditRecord, error) {
	var payload []byte
	err := c.pool.QueryRow(ctx,
		`SELECT record FROM audit_records ORDER BY sequence DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chain head: %w", err)
	}

	var rec model.AuditRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode chain head: %w", err)
	}
	return &rec, nil
}

// isRetryable reports whether the append should be retried. A unique
// violation on sequence means a concurrent writer won the race; serialization
// failures and deadlocks are transient by definition.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "23505", "40001", "40P01":
		return true
	}
	return false
}
