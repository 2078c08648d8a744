package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// credentialTTL is how long acquired session material stays valid before a
// fresh handshake is required.
const credentialTTL = 30 * time.Minute

// SessionCredential is the cookie material acquired by the handshake. Owned
// exclusively by the fetch client; never shared outside this package.
type SessionCredential struct {
	Cookies    map[string]string `json:"cookies"`
	AcquiredAt time.Time         `json:"acquired_at"`
}

// Expired reports whether the credential must be re-acquired.
func (c *SessionCredential) Expired(now time.Time) bool {
	if c == nil || len(c.Cookies) == 0 {
		return true
	}
	return now.Sub(c.AcquiredAt) > credentialTTL
}

// LoadCredential reads the credential cache from a JSON file. Returns nil (no
// error) if the file doesn't exist.
func LoadCredential(filePath string) (*SessionCredential, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cred SessionCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// SaveCredential writes the credential cache to a JSON file so subsequent
// process invocations can reuse the session without re-handshaking.
func SaveCredential(filePath string, cred *SessionCredential) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0600)
}
