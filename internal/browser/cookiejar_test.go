// File: internal/browser/cookiejar_test.go
package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJarLoadAbsentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "cookies.json")
	jar := NewJar(path, zap.NewNop())

	cookies := jar.Load()
	assert.Empty(t, cookies)

	// The first load seeds an empty jar file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestJarSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar := NewJar(path, zap.NewNop())

	saved := []*network.Cookie{
		{Name: "ASP.NET_SessionId", Value: "abc123", Domain: "detrannet.detran.ma.gov.br", Path: "/", HTTPOnly: true},
		{Name: ".AUTH", Value: "tok", Domain: "detrannet.detran.ma.gov.br", Path: "/", Secure: true, Expires: 1893456000},
	}
	jar.Save(saved)

	loaded := jar.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "ASP.NET_SessionId", loaded[0].Name)
	assert.Equal(t, "abc123", loaded[0].Value)
	assert.True(t, loaded[0].HTTPOnly)
	assert.Equal(t, float64(1893456000), loaded[1].Expires)
}

func TestJarLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	jar := NewJar(path, zap.NewNop())
	assert.Empty(t, jar.Load(), "a malformed jar degrades to an empty cookie set")
}

func TestJarSaveOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar := NewJar(path, zap.NewNop())

	jar.Save([]*network.Cookie{{Name: "first", Value: "1"}, {Name: "second", Value: "2"}})
	jar.Save([]*network.Cookie{{Name: "third", Value: "3"}})

	loaded := jar.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "third", loaded[0].Name)
}

func TestJarSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "cookies.json")
	jar := NewJar(path, zap.NewNop())

	jar.Save([]*network.Cookie{{Name: "c", Value: "v"}})

	require.Len(t, jar.Load(), 1)
}
