package services

import (
	"context"

	"github.com/Bhuvanani14/goodcity/types"
)

// GovernmentBodyRepository defines persistence operations for the
// department reference table.
type GovernmentBodyRepository interface {
	List(ctx context.Context, category, jurisdiction string) ([]types.GovernmentBody, error)
}

// GovernmentBodyService encapsulates department lookups.
type GovernmentBodyService struct {
	repo GovernmentBodyRepository
}

func NewGovernmentBodyService(repo GovernmentBodyRepository) *GovernmentBodyService {
	return &GovernmentBodyService{repo: repo}
}

// List returns active bodies for a category and jurisdiction, most
// responsible first.
func (s *GovernmentBodyService) List(ctx context.Context, category, jurisdiction string) ([]types.GovernmentBody, error) {
	return s.repo.List(ctx, category, jurisdiction)
}
