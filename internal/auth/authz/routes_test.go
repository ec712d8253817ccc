package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRouteTable_Classify(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		name      string
		path      string
		class     ResourceClass
		guestOnly bool
	}{
		{name: "home", path: "/", class: ClassPublic},
		{name: "about", path: "/about", class: ClassPublic},
		{name: "static asset", path: "/static/css/site.css", class: ClassPublic},
		{name: "login is guest only", path: "/login", class: ClassPublic, guestOnly: true},
		{name: "register is guest only", path: "/register", class: ClassPublic, guestOnly: true},
		{name: "admin login before admin prefix", path: "/admin/login", class: ClassPublic},
		{name: "admin root", path: "/admin", class: ClassAdmin},
		{name: "admin subpage", path: "/admin/users", class: ClassAdmin},
		{name: "admin api", path: "/api/admin/accounts", class: ClassAdmin},
		{name: "settings", path: "/settings", class: ClassAuthenticated},
		{name: "settings trailing slash", path: "/settings/", class: ClassAuthenticated},
		{name: "auth api", path: "/api/auth/login", class: ClassPublic},
		{name: "ai health", path: "/api/ai/health", class: ClassPublic},
		{name: "ai process", path: "/api/ai/process-image", class: ClassAuthenticated},
		{name: "unlisted path defaults to authenticated", path: "/something-new", class: ClassAuthenticated},
		{name: "prefix respects segments", path: "/administrator", class: ClassAuthenticated},
		{name: "dot segments cleaned", path: "/static/../admin/users", class: ClassAdmin},
		{name: "double slash cleaned", path: "//admin", class: ClassAdmin},
		{name: "empty path", path: "", class: ClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := table.Classify(tt.path)
			assert.Equal(t, tt.class, route.Class)
			assert.Equal(t, tt.guestOnly, route.GuestOnly)
		})
	}
}

func TestNewRouteTable(t *testing.T) {
	tests := []struct {
		name          string
		routes        []Route
		defaultClass  ResourceClass
		expectedError bool
	}{
		{name: "valid", routes: []Route{{Path: "/a", Class: ClassPublic}}, defaultClass: ClassAuthenticated},
		{name: "empty default", routes: []Route{{Path: "/a", Class: ClassPublic}}},
		{name: "relative path", routes: []Route{{Path: "a", Class: ClassPublic}}, expectedError: true},
		{name: "bad class", routes: []Route{{Path: "/a", Class: "root"}}, expectedError: true},
		{name: "bad match", routes: []Route{{Path: "/a", Match: "regex", Class: ClassPublic}}, expectedError: true},
		{name: "bad default", routes: []Route{{Path: "/a", Class: ClassPublic}}, defaultClass: "nobody", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewRouteTable(tt.routes, tt.defaultClass)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, table)
		})
	}
}

func TestNewRouteTable_WildcardSuffix(t *testing.T) {
	table, err := NewRouteTable([]Route{{Path: "/docs/*", Class: ClassPublic}}, ClassAdmin)
	require.NoError(t, err)

	assert.Equal(t, ClassPublic, table.Classify("/docs").Class)
	assert.Equal(t, ClassPublic, table.Classify("/docs/intro").Class)
	assert.Equal(t, ClassAdmin, table.Classify("/docsx").Class)
	assert.Equal(t, MatchPrefix, table.Routes()[0].Match)
}

func TestLoadRouteTable(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		file := filepath.Join(dir, "routes.yaml")
		content := `default: admin
routes:
  - path: /
    class: public
  - path: /login
    class: public
    guestOnly: true
  - path: /account
    match: prefix
    class: authenticated
`
		require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

		table, err := LoadRouteTable(file)
		require.NoError(t, err)

		assert.Equal(t, ClassPublic, table.Classify("/").Class)
		assert.True(t, table.Classify("/login").GuestOnly)
		assert.Equal(t, ClassAuthenticated, table.Classify("/account/history").Class)
		assert.Equal(t, ClassAdmin, table.Classify("/unlisted").Class)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRouteTable(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		file := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(file, []byte("routes: [::"), 0o600))
		_, err := LoadRouteTable(file)
		assert.Error(t, err)
	})

	t.Run("no routes", func(t *testing.T) {
		file := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(file, []byte("default: public\n"), 0o600))
		_, err := LoadRouteTable(file)
		assert.Error(t, err)
	})
}

func TestRouteTable_EncodeYAML(t *testing.T) {
	table := DefaultRouteTable()
	data, err := table.EncodeYAML()
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(file, data, 0o600))

	loaded, err := LoadRouteTable(file)
	require.NoError(t, err)
	assert.Equal(t, table.DefaultClass(), loaded.DefaultClass())
	assert.Equal(t, table.Routes(), loaded.Routes())
}
