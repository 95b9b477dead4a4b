package categories

import (
	"context"

	pkgerrors "github.com/swapmarket/backend/pkg/errors"
)

// Service exposes the category taxonomy.
type Service interface {
	Tree(ctx context.Context) ([]Node, error)
}

type service struct {
	repo *Repository
}

// NewService wires the category dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Tree(ctx context.Context) ([]Node, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return BuildForest(rows), nil
}
