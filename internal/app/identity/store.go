// Package identity persists the local display name and session token.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"algotutor/internal/domain/model"

	"github.com/pelletier/go-toml/v2"
)

const fileName = "identity.toml"

var ErrEmptyUsername = errors.New("username must not be empty")

// DefaultPath is $XDG_CONFIG_HOME/algotutor/identity.toml, or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "algotutor", fileName), nil
}

// Store is loaded once and saved after every mutation.
type Store struct {
	path string

	mu sync.Mutex
	id model.Identity
}

// Load reads the identity file. A missing file yields an empty identity.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if err := toml.Unmarshal(b, &s.id); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Get() model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Store) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	return s.mutate(func(id *model.Identity) {
		id.Username = username
		id.IsSet = true
	})
}

// ClearUsername forgets the display name and any session.
func (s *Store) ClearUsername() error {
	return s.mutate(func(id *model.Identity) {
		*id = model.Identity{}
	})
}

func (s *Store) Login(username, token string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	return s.mutate(func(id *model.Identity) {
		id.Username = username
		id.IsSet = true
		id.IsLogged = true
		id.Token = token
	})
}

func (s *Store) Logout() error {
	return s.mutate(func(id *model.Identity) {
		id.IsLogged = false
		id.Token = ""
	})
}

func (s *Store) mutate(fn func(*model.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.id
	fn(&next)
	if err := s.save(next); err != nil {
		return err
	}
	s.id = next
	return nil
}

func (s *Store) save(id model.Identity) error {
	b, err := toml.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace identity: %w", err)
	}
	return nil
}
