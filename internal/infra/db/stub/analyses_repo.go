package stub

import (
	"context"

	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

// AnalysisRepository is the listing backend used until analyses are
// persisted. It never returns records.
type AnalysisRepository struct{}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{}
}

func (r *AnalysisRepository) List(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.Record{}, nil
}
