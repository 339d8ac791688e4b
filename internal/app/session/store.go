// Package session owns the signed-in identity of a visitor: the backend token
// and the user profile that came with it. Both are set and cleared together.
package session

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

// State is a read-only copy of the session. Token and User are either both set or both empty.
type State struct {
	Token    string
	User     *models.UserProfile
	Hydrated bool
}

// Authenticated reports whether a signed-in identity is present.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Store is the only writer of session state. It is not safe for concurrent use;
// each request owns its own Store.
type Store struct {
	storage  Storage
	logger   *zap.Logger
	token    string
	user     *models.UserProfile
	hydrated bool
}

func NewStore(storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{storage: storage, logger: logger}
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	st := State{Hydrated: s.hydrated}
	if s.token != "" && s.user != nil {
		u := *s.user
		st.Token = s.token
		st.User = &u
	}
	return st
}

// Hydrate loads the persisted snapshot into memory. Anything malformed is treated
// as no session. It only reads storage and runs once; later calls do nothing.
func (s *Store) Hydrate() {
	if s.hydrated {
		return
	}
	defer func() { s.hydrated = true }()

	if s.storage == nil {
		return
	}
	token, hasToken := s.storage.Get(TokenKey)
	raw, hasUser := s.storage.Get(UserKey)
	if !hasToken || !hasUser || token == "" {
		return
	}

	user, err := decodeUser(raw)
	if err != nil {
		s.logger.Debug("Ignoring malformed session snapshot", zap.Error(err))
		return
	}
	s.token = token
	s.user = user
}

// Login replaces the session with token and user and persists both.
// It accepts exactly the profiles Hydrate accepts, so a stored session always
// survives the next request. On a failed write nothing changes, in memory or in storage.
func (s *Store) Login(token string, user models.UserProfile) error {
	if token == "" {
		return fmt.Errorf("login with empty token: %w", models.ErrValidation)
	}
	if !user.WellFormed() {
		return fmt.Errorf("login with profile missing id or userType: %w", models.ErrValidation)
	}
	if s.storage == nil {
		return errNoStorage
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}

	prevToken, hadToken := s.storage.Get(TokenKey)
	prevUser, hadUser := s.storage.Get(UserKey)

	s.storage.Set(TokenKey, token)
	s.storage.Set(UserKey, string(encoded))
	if err := s.storage.Save(); err != nil {
		restore(s.storage, TokenKey, prevToken, hadToken)
		restore(s.storage, UserKey, prevUser, hadUser)
		return fmt.Errorf("persist session: %w", err)
	}

	u := user
	s.token, s.user = token, &u
	s.hydrated = true
	return nil
}

// Logout clears the session. Calling it without a session is harmless.
// Memory is always cleared; a storage error is returned for the caller to log.
func (s *Store) Logout() error {
	s.token, s.user = "", nil
	s.hydrated = true
	if s.storage == nil {
		return nil
	}
	s.storage.Delete(TokenKey)
	s.storage.Delete(UserKey)
	if err := s.storage.Save(); err != nil {
		return fmt.Errorf("persist logout: %w", err)
	}
	return nil
}

func restore(storage Storage, key, value string, existed bool) {
	if existed {
		storage.Set(key, value)
		return
	}
	storage.Delete(key)
}

func decodeUser(raw string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if !user.WellFormed() {
		return nil, fmt.Errorf("user record missing id or userType: %w", models.ErrValidation)
	}
	return &user, nil
}
