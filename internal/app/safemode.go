package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/store"
)

// SafeModeService guards the app behind a local password. Only the bcrypt
// hash is stored.
type SafeModeService struct {
	Repo   *store.DB
	Logger *logger.Logger
	cost   int
}

func NewSafeModeService(repo *store.DB, log *logger.Logger) *SafeModeService {
	return &SafeModeService{Repo: repo, Logger: log.WithComponent("safemode"), cost: constants.BcryptCost}
}

func (s *SafeModeService) Enabled(ctx context.Context) (bool, error) {
	meta, err := s.Repo.LoadAppMeta(ctx)
	if err != nil {
		return false, err
	}
	return meta.SafeModeEnabled, nil
}

// Enable turns safe mode on. It fails with ErrSafeModeEnabled when a
// password is already set; use ChangePassword to replace it.
func (s *SafeModeService) Enable(ctx context.Context, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	meta, err := s.Repo.LoadAppMeta(ctx)
	if err != nil {
		return err
	}
	if meta.SafeModeEnabled {
		return domain.ErrSafeModeEnabled
	}
	if err := s.savePassword(ctx, password); err != nil {
		return err
	}
	s.Logger.Info("Safe mode enabled")
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *SafeModeService) ChangePassword(ctx context.Context, current, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	if err := s.Verify(ctx, current); err != nil {
		return err
	}
	if err := s.savePassword(ctx, password); err != nil {
		return err
	}
	s.Logger.Info("Safe mode password changed")
	return nil
}

func (s *SafeModeService) savePassword(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Repo.SetSafeMode(ctx, true, string(hash))
}

func checkPassword(password string) error {
	if len(password) < constants.MinSafeModePasswordLength {
		return fmt.Errorf("%w: need at least %d characters", domain.ErrPasswordTooShort, constants.MinSafeModePasswordLength)
	}
	return nil
}

// Verify checks password against the stored hash.
func (s *SafeModeService) Verify(ctx context.Context, password string) error {
	meta, err := s.Repo.LoadAppMeta(ctx)
	if err != nil {
		return err
	}
	if !meta.SafeModeEnabled {
		return domain.ErrSafeModeNotEnabled
	}
	err = bcrypt.CompareHashAndPassword([]byte(meta.SafeModeHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrSafeModeLocked
	}
	return err
}

// Disable requires the current password.
func (s *SafeModeService) Disable(ctx context.Context, password string) error {
	if err := s.Verify(ctx, password); err != nil {
		return err
	}
	if err := s.Repo.SetSafeMode(ctx, false, ""); err != nil {
		return err
	}
	s.Logger.Info("Safe mode disabled")
	return nil
}
