// Package session owns the current idrop.link identity: credentials,
// the auth token, and the synced drop list. It drives login, logout,
// credential recovery, and the drop upload workflow against the backend
// API, and notifies observers when the drop list changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/andinfinity/idroplink-go/internal/api"
	"github.com/andinfinity/idroplink-go/internal/secrets"
)

// Sentinel errors for session state transitions. The text is user-facing;
// the CLI prints it verbatim via UserMessage.
var (
	ErrNoCredentials    = errors.New("no saved credentials, sign up or log in first")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrAccountGone      = errors.New("your account does not exist anymore")
	ErrBadCredentials   = errors.New("wrong email or password, check your credentials")
	ErrOffline          = errors.New("could not reach idrop.link, check your connection")
)

// fallbackMessage is used when the backend returns an error without a
// message field, or a 2xx response missing expected fields.
const fallbackMessage = "no message returned"

// Credential is the identity triple the backend keys everything on.
// It is valid only when all three fields are present; partial triples are
// treated as absent everywhere.
type Credential struct {
	Email    string
	Password string
	UserID   string
}

// complete reports whether all three fields are present.
func (c Credential) complete() bool {
	return c.Email != "" && c.Password != "" && c.UserID != ""
}

// DropRecorder persists synced drops outside the session's memory.
// Implemented by the history store; nil disables recording.
type DropRecorder interface {
	ReplaceDrops(drops []Drop) error
	Clear() error
}

// Config holds the collaborators for New.
type Config struct {
	Client   *api.Client
	Store    secrets.Store
	Recorder DropRecorder // optional
	Logger   *slog.Logger
}

// Session is the stateful core: zero or one credential, zero or one token,
// and the ordered drop list (newest first). All exported methods are safe
// for concurrent use; network calls run outside the lock.
type Session struct {
	client   *api.Client
	store    secrets.Store
	recorder DropRecorder
	logger   *slog.Logger

	mu           sync.Mutex
	cred         Credential
	token        string
	drops        []Drop
	dropsChanged []func()
}

// New creates a logged-out Session.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		client:   cfg.Client,
		store:    cfg.Store,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// SetCredentials installs a credential triple. Any incomplete triple is
// normalized to absent so the session can never hold a partial set.
func (s *Session) SetCredentials(email, password, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := Credential{Email: email, Password: password, UserID: userID}
	if !cred.complete() {
		cred = Credential{}
	}

	s.cred = cred
}

// HasCredentials reports whether email, password, and user ID are all set.
func (s *Session) HasCredentials() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cred.complete()
}

// Credentials returns a copy of the current credential triple.
func (s *Session) Credentials() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cred
}

// Authenticated reports whether the session holds a token.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token != "" && s.cred.complete()
}

// OnDropsChanged registers fn to run after every drop list mutation.
// Callbacks fire outside the session lock.
func (s *Session) OnDropsChanged(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropsChanged = append(s.dropsChanged, fn)
}

// Drops returns a snapshot of the drop list, newest first.
func (s *Session) Drops() []Drop {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Drop, len(s.drops))
	copy(out, s.drops)

	return out
}

// SignUp registers a new account, adopts the credentials, and persists
// them. Returns the user ID assigned by the backend.
func (s *Session) SignUp(ctx context.Context, email, password string) (string, error) {
	id, err := s.client.CreateUser(ctx, email, password)
	if err != nil {
		return "", err
	}

	s.SetCredentials(email, password, id)

	if persistErr := s.PersistCredentials(); persistErr != nil {
		// The account exists and the session is usable; only recovery
		// across restarts is degraded.
		s.logger.Warn("could not persist credentials",
			slog.String("error", persistErr.Error()),
		)
	}

	s.logger.Info("user created", slog.String("user_id", id))

	return id, nil
}

// FetchUserID resolves the user ID for an email/password pair, adopts the
// resulting credential triple, and persists it. State is untouched on
// failure. Transport failures surface as ErrOffline so the caller can show
// a connectivity error instead of a server message.
func (s *Session) FetchUserID(ctx context.Context, email, password string) error {
	id, err := s.client.GetIDForEmail(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrTransport) {
			return fmt.Errorf("%w: %w", ErrOffline, err)
		}

		return err
	}

	s.SetCredentials(email, password, id)

	if persistErr := s.PersistCredentials(); persistErr != nil {
		s.logger.Warn("could not persist credentials",
			slog.String("error", persistErr.Error()),
		)
	}

	return nil
}

// Login exchanges the stored credentials for a token and syncs the drop
// list. A 404 from the token endpoint means the account is gone; 400/401
// mean bad credentials. Both purge the secret store and log the session
// out before returning. Any other failure logs the session out but keeps
// the persisted credentials so a later retry can succeed.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	cred := s.cred
	s.mu.Unlock()

	if !cred.complete() {
		return ErrNoCredentials
	}

	token, err := s.client.GetToken(ctx, cred.UserID, cred.Email, cred.Password)
	if err != nil {
		return s.loginFailed(err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logger.Info("logged in", slog.String("user_id", cred.UserID))

	if syncErr := s.SyncDrops(ctx); syncErr != nil {
		// Login itself succeeded; the list stays stale until the next sync.
		s.logger.Warn("initial drop sync failed",
			slog.String("error", syncErr.Error()),
		)
	}

	return nil
}

// loginFailed maps a token endpoint failure to the session's cleanup
// policy and error taxonomy.
func (s *Session) loginFailed(err error) error {
	switch {
	case errors.Is(err, api.ErrNotFound):
		s.purgeCredentials()
		s.Logout()

		return fmt.Errorf("%w: %w", ErrAccountGone, err)

	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrBadRequest):
		s.purgeCredentials()
		s.Logout()

		return fmt.Errorf("%w: %w", ErrBadCredentials, err)

	case errors.Is(err, api.ErrTransport):
		s.dropToken()

		return fmt.Errorf("%w: %w", ErrOffline, err)

	default:
		s.dropToken()

		return fmt.Errorf("login failed: %w", err)
	}
}

// TryLogin logs in when credentials are present and reports
// ErrNoCredentials otherwise. Never a silent no-op.
func (s *Session) TryLogin(ctx context.Context) error {
	if !s.HasCredentials() {
		return ErrNoCredentials
	}

	return s.Login(ctx)
}

// Logout clears the credential, token, and drop list. Idempotent and
// callable from any state. Persisted credentials are not touched; use
// PurgeCredentials for that.
func (s *Session) Logout() {
	s.mu.Lock()
	hadDrops := len(s.drops) > 0
	s.cred = Credential{}
	s.token = ""
	s.drops = nil
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Clear(); err != nil {
			s.logger.Warn("could not clear drop history",
				slog.String("error", err.Error()),
			)
		}
	}

	if hadDrops {
		s.notifyDropsChanged()
	}

	s.logger.Info("logged out")
}

// PurgeCredentials removes every persisted credential from the secret
// store. The in-memory session state is untouched.
func (s *Session) PurgeCredentials() {
	s.purgeCredentials()
}

func (s *Session) purgeCredentials() {
	if err := s.store.RemoveAll(); err != nil {
		s.logger.Warn("could not purge secret store",
			slog.String("error", err.Error()),
		)
	}
}

// dropToken clears only the token, returning the session to the
// credentials-known state.
func (s *Session) dropToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// authContext returns the user ID and token, or ErrNotAuthenticated.
func (s *Session) authContext() (userID, token string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cred.complete() || s.token == "" {
		return "", "", ErrNotAuthenticated
	}

	return s.cred.UserID, s.token, nil
}

// notifyDropsChanged runs all registered drop list observers.
func (s *Session) notifyDropsChanged() {
	s.mu.Lock()
	observers := make([]func(), len(s.dropsChanged))
	copy(observers, s.dropsChanged)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// UserMessage maps an error from any session operation to the string the
// UI should show. Transport failures get a connectivity message, backend
// errors surface their message verbatim, and malformed responses fall
// back to a fixed string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	for _, sentinel := range []error{
		ErrAccountGone, ErrBadCredentials, ErrNoCredentials, ErrNotAuthenticated, ErrOffline,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	if errors.Is(err, api.ErrTransport) {
		return ErrOffline.Error()
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}

		return fallbackMessage
	}

	if errors.Is(err, api.ErrMalformedResponse) {
		return fallbackMessage
	}

	return err.Error()
}
