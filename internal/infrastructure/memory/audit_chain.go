package memory

import (
	"context"
	"sync"

	"github.com/veridex/riskengine/internal/domain/model"
)

// AuditChain is the in-memory audit store used in development and tests.
// The mutex makes Append the single writer, which linearizes the chain.
type AuditChain struct {
	mu      sync.RWMutex
	records []model.AuditRecord
}

// NewAuditChain creates an empty chain.
func NewAuditChain() *AuditChain {
	return &AuditChain{}
}

// Append seals the record against the current head and stores it.
func (c *AuditChain) Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.AuditRecord{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var prev *model.AuditRecord
	if len(c.records) > 0 {
		prev = &c.records[len(c.records)-1]
	}
	sealed := rec.Seal(prev)
	c.records = append(c.records, sealed)
	return sealed, nil
}

// Page reads records with sequence greater than after, oldest first.
func (c *AuditChain) Page(ctx context.Context, after uint64, limit int) ([]model.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var page []model.AuditRecord
	for _, rec := range c.records {
		if rec.Sequence <= after {
			continue
		}
		page = append(page, rec)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// Head returns the most recent record, or nil for an empty chain.
func (c *AuditChain) Head(ctx context.Context) (*model.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) == 0 {
		return nil, nil
	}
	head := c.records[len(c.records)-1]
	return &head, nil
}

// Len reports the chain length.
func (c *AuditChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
