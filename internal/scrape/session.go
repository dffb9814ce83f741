package scrape

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// WriteSessionFile records the active session id in the marker file so a
// later run command picks it up by default.
func WriteSessionFile(path, sessionID string) error {
	if err := os.WriteFile(path, []byte(sessionID+"\n"), 0o644); err != nil {
		return eris.Wrapf(err, "scrape: write session file %s", path)
	}
	return nil
}

// ReadSessionFile returns the session id from the marker file, or "" if
// the file does not exist.
func ReadSessionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "scrape: read session file %s", path)
	}
	return strings.TrimSpace(string(data)), nil
}
