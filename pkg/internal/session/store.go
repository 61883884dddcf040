package session

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// ErrCorrupted is returned by Load when the persisted blob exists but cannot
// be read back as a complete user. The blob is already cleared by then; the
// caller must restart in the logged-out state.
var ErrCorrupted = errors.New("persisted session is corrupted")

// Store keeps the current session as a single JSON file. No other state is
// persisted anywhere else.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath puts the session file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "glazor", "session.json"), nil
}

// Load reads the persisted session. A missing file means no session. A blob
// that fails to parse, or parses into a partial record, is cleared on the
// spot and reported as ErrCorrupted so a second Load finds nothing.
func (s *Store) Load() (*models.User, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := jsoniter.Unmarshal(raw, &user); err != nil || len(user.ID) == 0 {
		log.Warn().Str("path", s.path).Msg("Stored session is unreadable, clearing it.")
		if err := s.Clear(); err != nil {
			return nil, err
		}
		return nil, ErrCorrupted
	}

	return &user, nil
}

// Save overwrites the persisted session with the given user.
func (s *Store) Save(user models.User) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	raw, err := jsoniter.Marshal(user)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0600)
}

// Clear removes the persisted session. Clearing an absent session is fine.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
