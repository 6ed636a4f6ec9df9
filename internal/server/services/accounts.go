package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
)

// AccountService covers signup and withdrawal. Withdrawal is a soft delete;
// the cascade delete job removes the account after the grace period.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "accounts"),
		now:         time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, id, nickname string) (*models.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty account id", common.ErrorValidation)
	}
	a, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{ID: id, Nickname: nickname})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

// Withdraw marks the account deleted and restarts its grace period.
func (s *AccountService) Withdraw(ctx context.Context, id string) error {
	if err := s.repomanager.Accounts(s.db).MarkDeleted(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("error withdrawing account: %w", err)
	}
	s.logger.Info(ctx, "account withdrawn", "account_id", id)
	return nil
}
