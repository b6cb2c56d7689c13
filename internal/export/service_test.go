package export

import (
	"context"
	"errors"
	"testing"

	"draftly/internal/domain"
	"draftly/internal/render"
)

func TestExportWithoutStorage(t *testing.T) {
	svc := NewService(nil, nil, render.New(), nil)

	_, err := svc.Export(context.Background(), "t1", "doc-1")
	if !errors.Is(err, domain.ErrExport) {
		t.Fatalf("error = %v, want domain.ErrExport", err)
	}
}
