package analyses

import (
	"context"
	"fmt"
	"log"

	"github.com/innerantelope/predictive-maintenance/internal/application"
	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

// Service implements use-cases untuk machine analysis.
// Service is safe for concurrent use; it holds no mutable state.
type Service struct {
	Files  domain.FileStore
	Repo   domain.Repository
	Mirror domain.Mirror // optional
	Clock  application.Clock
}

// RecordCommand carries one accepted upload into Record.
type RecordCommand struct {
	File   domain.StoredFile
	Fields []domain.FormField
}

// Record builds the analysis for an image the upload middleware already
// stored. Nothing besides the file itself is persisted.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*domain.Record, error) {
	if cmd.File.Name == "" {
		return nil, domain.ErrNoFile
	}

	predictions, err := domain.ParsePredictions(cmd.Fields)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	rec := &domain.Record{
		ID:          now.UnixMilli(),
		ImagePath:   cmd.File.PublicPath(),
		Predictions: predictions,
		CreatedAt:   domain.FormatTimestamp(now),
	}
	up := domain.Upload{Fields: cmd.Fields}
	if v, ok := up.Value(domain.FieldTopPrediction); ok {
		rec.TopPrediction = &v
	}
	conf, _ := up.Value(domain.FieldTopConfidence)
	rec.TopConfidence = domain.ParseConfidence(conf)

	s.mirror(ctx, cmd.File)
	return rec, nil
}

// mirror copies the stored image to object storage. Failures are logged only,
// the local copy stays authoritative.
func (s *Service) mirror(ctx context.Context, f domain.StoredFile) {
	if s.Mirror == nil {
		return
	}
	url, err := s.Mirror.Upload(ctx, f.Path, "uploads/"+f.Name)
	if err != nil {
		log.Printf("mirror upload failed: file=%s err=%v", f.Name, err)
		return
	}
	log.Printf("mirror upload ok: file=%s url=%s", f.Name, url)
}

// List returns stored analyses. There is no record store, so this is always
// an empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]domain.Record, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	if list == nil {
		list = []domain.Record{}
	}
	return list, nil
}

// Discard removes a stored image after the request that carried it failed.
func (s *Service) Discard(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.Files.Remove(ctx, name); err != nil {
		log.Printf("discard upload failed: file=%s err=%v", name, err)
	}
}
