package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/andinfinity/idroplink-go/internal/secrets"
)

// Secret store keys for the credential triple. The service scoping
// (de.andinfinity.idrop.link) is carried by the store itself.
const (
	KeyUserEmail    = "idrop-link-user-email"
	KeyUserID       = "idrop-link-user-id"
	KeyUserPassword = "idrop-link-user-password"
)

// ServiceName scopes the secret store for this application.
const ServiceName = "de.andinfinity.idrop.link"

// RestoreCredentials reads the credential triple from the secret store.
// When all three fields are present they are adopted and true is
// returned. Any partial set is unusable: the stale keys are removed from
// the store, nothing is adopted, and false is returned. This guarantees
// the session never operates on an inconsistent credential set.
func (s *Session) RestoreCredentials() bool {
	email := s.readKey(KeyUserEmail)
	password := s.readKey(KeyUserPassword)
	userID := s.readKey(KeyUserID)

	cred := Credential{Email: email, Password: password, UserID: userID}
	if !cred.complete() {
		if email != "" || password != "" || userID != "" {
			s.logger.Warn("incomplete credential set in secret store, purging")
		}

		for _, key := range []string{KeyUserEmail, KeyUserID, KeyUserPassword} {
			if err := s.store.Remove(key); err != nil {
				s.logger.Warn("could not remove stale key",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		}

		return false
	}

	s.SetCredentials(email, password, userID)

	s.logger.Debug("credentials restored", slog.String("user_id", userID))

	return true
}

// PersistCredentials writes the credential triple to the secret store.
// Reported as failed when any single write fails; already-written keys
// are not rolled back (RestoreCredentials discards partial sets anyway).
func (s *Session) PersistCredentials() error {
	s.mu.Lock()
	cred := s.cred
	s.mu.Unlock()

	if !cred.complete() {
		return ErrNoCredentials
	}

	writes := []struct {
		key, value string
	}{
		{KeyUserPassword, cred.Password},
		{KeyUserEmail, cred.Email},
		{KeyUserID, cred.UserID},
	}

	for _, w := range writes {
		if err := s.store.Set(w.key, w.value); err != nil {
			return fmt.Errorf("persisting %s: %w", w.key, err)
		}
	}

	return nil
}

// readKey returns the stored value for key, or "" when absent or the
// store errors.
func (s *Session) readKey(key string) string {
	val, err := s.store.Get(key)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			s.logger.Warn("secret store read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}

		return ""
	}

	return val
}
