package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrNotLoggedIn = errors.New("not logged in, run: jogtracker login <device-uuid>")

// Credentials is the login kept between cli runs.
type Credentials struct {
	APIURL      string    `toml:"api_url"`
	AccessToken string    `toml:"access_token"`
	UserID      string    `toml:"user_id"`
	Email       string    `toml:"email"`
	LoggedInAt  time.Time `toml:"logged_in_at"`
}

func loadCredentials(path string) (*Credentials, error) {
	var creds Credentials
	if _, err := toml.DecodeFile(path, &creds); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read credentials [%s]: %w", path, err)
	}
	if creds.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &creds, nil
}

func saveCredentials(path string, creds *Credentials) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open credentials file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("close credentials file: %w", cErr)
		}
	}()

	if err := toml.NewEncoder(f).Encode(creds); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// removeCredentials reports whether there was a login to remove.
func removeCredentials(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove credentials: %w", err)
	}
}
