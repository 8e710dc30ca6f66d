package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritest/veritest-backend/internal/repository"
	"github.com/veritest/veritest-backend/internal/response"
)

// ResultService serves operator-facing result listings.
type ResultService struct {
	sessionRepo *repository.SessionRepository
}

// NewResultService creates a new ResultService.
func NewResultService(sessionRepo *repository.SessionRepository) *ResultService {
	return &ResultService{sessionRepo: sessionRepo}
}

// ListByExam returns paginated session results for an exam.
func (s *ResultService) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.SessionResult, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.sessionRepo.ListResultsByExam(ctx, examID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []repository.SessionResult{}
	}

	totalPages := (total + perPage - 1) / perPage
	return results, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}
