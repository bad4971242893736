// File: internal/browser/cookiejar.go
package browser

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/network"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Jar persists the portal's authentication cookies across process lifetimes
// as a JSON array at a fixed path. File access is serialized through the
// jar's mutex; concurrent queries share one Jar value.
//
// All I/O is best-effort: a missing or unusable jar only means the next query
// re-authenticates, so failures are logged, never returned as fatal.
type Jar struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewJar creates a jar backed by the given file path.
func NewJar(path string, logger *zap.Logger) *Jar {
	return &Jar{path: path, logger: logger.Named("cookie_jar")}
}

// Load reads the persisted cookie set. An absent or malformed file yields an
// empty set. The file is created empty before the first read attempt if it
// does not exist.
func (j *Jar) Load() []*network.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.ensureFile(); err != nil {
		j.logger.Warn("Could not ensure cookie file exists.", zap.String("path", j.path), zap.Error(err))
		return nil
	}

	data, err := os.ReadFile(j.path)
	if err != nil {
		j.logger.Warn("Could not read cookie file.", zap.String("path", j.path), zap.Error(err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var cookies []*network.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		j.logger.Warn("Cookie file is malformed; treating as empty.", zap.String("path", j.path), zap.Error(err))
		return nil
	}

	j.logger.Debug("Loaded persisted cookies.", zap.Int("count", len(cookies)))
	return cookies
}

// Save overwrites the persisted cookie set wholesale, creating the containing
// directory if needed.
func (j *Jar) Save(cookies []*network.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(cookies)
	if err != nil {
		j.logger.Warn("Could not serialize cookies.", zap.Error(err))
		return
	}

	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			j.logger.Warn("Could not create cookie directory.", zap.String("dir", dir), zap.Error(err))
			return
		}
	}

	if err := os.WriteFile(j.path, data, 0o600); err != nil {
		j.logger.Warn("Could not write cookie file.", zap.String("path", j.path), zap.Error(err))
		return
	}
	j.logger.Debug("Persisted cookies.", zap.Int("count", len(cookies)))
}

// ensureFile creates an empty jar file (and directory) if absent.
// Callers must hold j.mu.
func (j *Jar) ensureFile() error {
	if _, err := os.Stat(j.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(j.path, []byte("[]"), 0o600)
}
