package service

import (
	"context"

	"github.com/veritest/veritest-backend/internal/model"
	"github.com/veritest/veritest-backend/internal/repository"
)

// AccountService resolves student and operator accounts for authentication.
type AccountService struct {
	studentRepo  *repository.StudentRepository
	operatorRepo *repository.OperatorRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(studentRepo *repository.StudentRepository, operatorRepo *repository.OperatorRepository) *AccountService {
	return &AccountService{studentRepo: studentRepo, operatorRepo: operatorRepo}
}

// StudentByUsername looks up a student for login.
func (s *AccountService) StudentByUsername(ctx context.Context, username string) (*model.Student, error) {
	return s.studentRepo.GetByUsername(ctx, username)
}

// StudentByID looks up a student by id.
func (s *AccountService) StudentByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// OperatorByEmail looks up an operator for login.
func (s *AccountService) OperatorByEmail(ctx context.Context, email string) (*model.Operator, error) {
	return s.operatorRepo.GetByEmail(ctx, email)
}

// OperatorByID looks up an operator by id.
func (s *AccountService) OperatorByID(ctx context.Context, id int) (*model.Operator, error) {
	return s.operatorRepo.GetByID(ctx, id)
}
