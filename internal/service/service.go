package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/logger"
	"pdvcaixa/internal/store"
)

const defaultSaveTimeout = 5 * time.Second

// tillState is everything the till knows. The embedded snapshot is what gets
// persisted, the remaining fields describe who is at the till right now.
type tillState struct {
	domain.Snapshot

	cart            []domain.CartItem
	currentUser     *domain.CurrentUser
	register        *domain.CashRegisterSession
	lastTransaction *domain.Transaction
}

// Service owns the till state. Every operation runs to completion under mu,
// so concurrent callers observe one writer at a time.
type Service struct {
	mu          sync.Mutex
	state       tillState
	repo        store.SnapshotStore
	log         *logger.Logger
	now         func() time.Time
	saveTimeout time.Duration
}

// Options tunes how a fresh till is seeded.
type Options struct {
	SeedAdminPassword string
}

// New restores the last snapshot from repo, seeding the default catalog and
// staff when nothing was saved before.
func New(ctx context.Context, repo store.SnapshotStore, log *logger.Logger, opts Options) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:        repo,
		log:         log.WithComponent("service"),
		now:         time.Now,
		saveTimeout: defaultSaveTimeout,
	}

	snapshot, err := repo.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		snapshot, err = DefaultSnapshot(opts.SeedAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("seed snapshot: %w", err)
		}
		s.state.Snapshot = snapshot
		if opts.SeedAdminPassword == "" {
			s.log.Warnw("seeded ADM-001 with the default password, set SEED_ADMIN_PASSWORD to override")
		}
		s.log.Infow("no snapshot found, seeded defaults",
			"products", len(snapshot.Products),
			"employees", len(snapshot.Employees))
		s.persistLocked(ctx, "seed")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	s.state.Snapshot = normalizeSnapshot(snapshot)
	if upgraded := s.upgradeLegacyPasswordsLocked(); upgraded > 0 {
		s.log.Infow("upgraded legacy plain passwords", "count", upgraded)
		s.persistLocked(ctx, "password_upgrade")
	}
	return s, nil
}

// Snapshot returns a copy of the persisted part of the state.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.state.Snapshot)
}

// persistLocked mirrors the committed state to the repository. A failed write
// is logged and the in-memory state stays as it is.
func (s *Service) persistLocked(ctx context.Context, reason string) {
	if s.repo == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if err := s.repo.Save(saveCtx, s.state.Snapshot); err != nil {
		s.log.Warnw("snapshot save failed", "reason", reason, "error", err)
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func normalizeSnapshot(snapshot domain.Snapshot) domain.Snapshot {
	if !snapshot.Theme.FontFamily.Valid() {
		snapshot.Theme = domain.DefaultTheme()
	}
	for i := range snapshot.Products {
		if !snapshot.Products[i].Unit.Valid() {
			snapshot.Products[i].Unit = domain.UnitPiece
		}
	}
	return snapshot
}

func (s *Service) Theme() domain.ThemeSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Theme
}

func (s *Service) SetTheme(ctx context.Context, theme domain.ThemeSettings) (domain.ThemeSettings, error) {
	if !theme.FontFamily.Valid() {
		return domain.ThemeSettings{}, ErrInvalidInput
	}
	c := theme.PrimaryColor
	if c.H < 0 || c.H > 360 || c.S < 0 || c.S > 100 || c.L < 0 || c.L > 100 {
		return domain.ThemeSettings{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Theme = theme
	s.persistLocked(ctx, "theme")
	return theme, nil
}
