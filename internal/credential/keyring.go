package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/notification-sync/internal/model"
)

const serviceName = "notifysync"

// currentUserKey holds the user id of the last login.
const currentUserKey = "current-user"

// ErrNoSession is returned by LoadIdentity when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Store persists identities in the system keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the first available system keyring,
// falling back to an encrypted file under ~/.config/notifysync.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt("notifysync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an existing keyring, e.g. keyring.NewArrayKeyring in tests.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func fileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "credentials")
	}
	return filepath.Join(home, ".config", "notifysync", "credentials")
}

// SaveIdentity stores the token for identity and marks it as the
// current user.
func (s *Store) SaveIdentity(identity model.Identity) error {
	if identity.IsZero() {
		return errors.New("saving identity: user id is required")
	}
	if err := s.set(tokenKey(identity.UserID), identity.Token); err != nil {
		return err
	}
	return s.set(currentUserKey, identity.UserID)
}

// LoadIdentity returns the identity of the last login, or ErrNoSession.
func (s *Store) LoadIdentity() (model.Identity, error) {
	userID, err := s.get(currentUserKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return model.Identity{}, ErrNoSession
	}
	if err != nil {
		return model.Identity{}, err
	}

	token, err := s.get(tokenKey(userID))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return model.Identity{}, ErrNoSession
	}
	if err != nil {
		return model.Identity{}, err
	}

	return model.Identity{UserID: userID, Token: token}, nil
}

// DeleteIdentity forgets the current user and its token. It is not an
// error to log out twice.
func (s *Store) DeleteIdentity() error {
	userID, err := s.get(currentUserKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.remove(tokenKey(userID)); err != nil {
		return err
	}
	return s.remove(currentUserKey)
}

func tokenKey(userID string) string {
	return "token-" + userID
}

func (s *Store) get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (s *Store) set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

func (s *Store) remove(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
