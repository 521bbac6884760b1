// Package uistate persists per-session dashboard chrome state (sidebar, theme, expanded groups).
package uistate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrStateNotFound is returned by a Store when the session never saved a state.
	ErrStateNotFound = errors.New("ui state not found")
	// ErrInvalidSession is returned for session keys that are empty or unsafe.
	ErrInvalidSession = errors.New("invalid session id")
	// ErrInvalidState wraps validation failures of a submitted state.
	ErrInvalidState = errors.New("invalid ui state")
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Store is the persistence boundary of UI state.
type Store interface {
	Get(ctx context.Context, session string) (*models.UIState, error)
	Put(ctx context.Context, session string, state *models.UIState) error
	Close() error
}

// Manager loads and saves UI state with defaults and validation.
type Manager struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Load returns the stored state of the session, or the defaults when none was saved.
func (m *Manager) Load(ctx context.Context, session string) (*models.UIState, error) {
	if !sessionPattern.MatchString(session) {
		return nil, ErrInvalidSession
	}

	state, err := m.store.Get(ctx, session)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return models.DefaultUIState(), nil
		}

		return nil, fmt.Errorf("failed to load ui state: %w", err)
	}

	if state.ExpandedGroups == nil {
		state.ExpandedGroups = []string{}
	}

	return state, nil
}

// Save validates and stores the state, stamping updated_at.
func (m *Manager) Save(ctx context.Context, session string, state *models.UIState) (*models.UIState, error) {
	if !sessionPattern.MatchString(session) {
		return nil, ErrInvalidSession
	}

	if state.ExpandedGroups == nil {
		state.ExpandedGroups = []string{}
	}

	err := m.validate.Struct(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	state.UpdatedAt = m.now()

	err = m.store.Put(ctx, session, state)
	if err != nil {
		return nil, fmt.Errorf("failed to save ui state: %w", err)
	}

	m.logger.DebugContext(ctx, "ui state saved", "session", session, "theme", state.Theme)

	return state, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
