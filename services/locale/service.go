package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrUnsupportedLocale  = errors.New("unsupported locale")
)

// DefaultLocale is used for users who never picked a language.
const DefaultLocale = "en"

// supported is the fixed language menu. Order is the menu display order.
var supported = []string{"en", "si", "ta", "hi"}

// Service persists each user's selected language.
type Service struct {
	mu      sync.RWMutex
	path    string
	locales map[string]string
}

// NewService creates a locale store inside the given directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create locale dir: %w", err)
	}

	svc := &Service{
		path:    filepath.Join(storageDir, "locales.json"),
		locales: make(map[string]string),
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Supported returns the selectable locale codes in menu order.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is in the fixed language menu.
func IsSupported(code string) bool {
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}

// Get returns the user's locale, or the default if never set.
func (s *Service) Get(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DefaultLocale
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if code, ok := s.locales[userID]; ok {
		return code
	}
	return DefaultLocale
}

// Set stores the user's locale. The code must parse as a BCP 47 tag and be in
// the supported set.
func (s *Service) Set(userID, code string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	code = strings.ToLower(strings.TrimSpace(code))
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
	}
	if !IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.locales[userID] = code
	return s.saveLocked()
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read locales file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.locales); err != nil {
		return fmt.Errorf("decode locales file: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create locales temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.locales); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode locales file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync locales file: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close locales temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace locales file: %w", err)
	}
	return nil
}
