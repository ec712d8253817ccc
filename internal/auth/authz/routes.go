package authz

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchType selects how a route pattern is compared with a request path
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchPrefix MatchType = "prefix"
)

// Route is one entry of the route table
type Route struct {
	Path  string        `yaml:"path"`
	Match MatchType     `yaml:"match"`
	Class ResourceClass `yaml:"class"`
	// GuestOnly marks login/registration pages that signed-in clients are sent away from
	GuestOnly bool `yaml:"guestOnly"`
}

// RouteTable classifies request paths; the first matching entry wins
type RouteTable struct {
	routes       []Route
	defaultClass ResourceClass
}

type routeTableFile struct {
	Default ResourceClass `yaml:"default"`
	Routes  []Route       `yaml:"routes"`
}

// NewRouteTable validates and normalizes the entries
func NewRouteTable(routes []Route, defaultClass ResourceClass) (*RouteTable, error) {
	if defaultClass == "" {
		defaultClass = ClassAuthenticated
	}
	if !defaultClass.Valid() {
		return nil, fmt.Errorf("invalid default class: %q", defaultClass)
	}

	normalized := make([]Route, 0, len(routes))
	for i, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %d: path must start with /: %q", i, r.Path)
		}
		if !r.Class.Valid() {
			return nil, fmt.Errorf("route %d (%s): invalid class %q", i, r.Path, r.Class)
		}

		// "/settings/*" is shorthand for a prefix match on "/settings"
		if p, ok := strings.CutSuffix(r.Path, "/*"); ok {
			r.Path = p
			r.Match = MatchPrefix
		}
		if r.Match == "" {
			r.Match = MatchExact
		}
		if r.Match != MatchExact && r.Match != MatchPrefix {
			return nil, fmt.Errorf("route %d (%s): invalid match %q", i, r.Path, r.Match)
		}
		if r.Path != "/" {
			r.Path = strings.TrimSuffix(r.Path, "/")
		}
		normalized = append(normalized, r)
	}

	return &RouteTable{routes: normalized, defaultClass: defaultClass}, nil
}

// LoadRouteTable reads a YAML route table file
func LoadRouteTable(filename string) (*RouteTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}

	var file routeTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, fmt.Errorf("route table %s has no routes", filename)
	}

	return NewRouteTable(file.Routes, file.Default)
}

// Classify returns the route entry for the path. Unmatched paths get the default class.
func (t *RouteTable) Classify(requestPath string) Route {
	p := cleanPath(requestPath)
	for _, r := range t.routes {
		if r.matches(p) {
			return r
		}
	}
	return Route{Path: p, Match: MatchExact, Class: t.defaultClass}
}

// Routes returns a copy of the entries
func (t *RouteTable) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// DefaultClass is the class of paths no entry matches
func (t *RouteTable) DefaultClass() ResourceClass {
	return t.defaultClass
}

// EncodeYAML renders the table in the format LoadRouteTable reads
func (t *RouteTable) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(routeTableFile{Default: t.defaultClass, Routes: t.routes})
}

func (r Route) matches(p string) bool {
	if r.Match == MatchExact {
		return p == r.Path
	}
	if r.Path == "/" {
		return true
	}
	return p == r.Path || strings.HasPrefix(p, r.Path+"/")
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// DefaultRouteTable is the built-in table. Unlisted paths require a session.
func DefaultRouteTable() *RouteTable {
	table, err := NewRouteTable([]Route{
		// Informational pages
		{Path: "/", Match: MatchExact, Class: ClassPublic},
		{Path: "/about", Match: MatchExact, Class: ClassPublic},
		{Path: "/contact", Match: MatchExact, Class: ClassPublic},
		{Path: "/help", Match: MatchExact, Class: ClassPublic},
		{Path: "/translate", Match: MatchExact, Class: ClassPublic},
		{Path: "/favicon.ico", Match: MatchExact, Class: ClassPublic},
		{Path: "/static", Match: MatchPrefix, Class: ClassPublic},
		{Path: "/healthz", Match: MatchExact, Class: ClassPublic},

		// Credential pages
		{Path: "/login", Match: MatchExact, Class: ClassPublic, GuestOnly: true},
		{Path: "/register", Match: MatchExact, Class: ClassPublic, GuestOnly: true},
		{Path: "/admin/login", Match: MatchExact, Class: ClassPublic},
		{Path: "/forgot-password", Match: MatchExact, Class: ClassPublic},
		{Path: "/reset-password", Match: MatchExact, Class: ClassPublic},

		// Public API
		{Path: "/api/auth", Match: MatchPrefix, Class: ClassPublic},
		{Path: "/api/translate", Match: MatchExact, Class: ClassPublic},
		{Path: "/api/ai/health", Match: MatchExact, Class: ClassPublic},

		// Service-to-service endpoints carry their own API key check
		{Path: "/internal", Match: MatchPrefix, Class: ClassPublic},
		{Path: "/metrics", Match: MatchExact, Class: ClassPublic},

		// Admin area
		{Path: "/admin", Match: MatchPrefix, Class: ClassAdmin},
		{Path: "/api/admin", Match: MatchPrefix, Class: ClassAdmin},

		// Signed-in area
		{Path: "/dashboard", Match: MatchPrefix, Class: ClassAuthenticated},
		{Path: "/settings", Match: MatchPrefix, Class: ClassAuthenticated},
		{Path: "/history", Match: MatchPrefix, Class: ClassAuthenticated},
		{Path: "/capture", Match: MatchPrefix, Class: ClassAuthenticated},
		{Path: "/api/account", Match: MatchPrefix, Class: ClassAuthenticated},
		{Path: "/api/ai", Match: MatchPrefix, Class: ClassAuthenticated},
	}, ClassAuthenticated)
	if err != nil {
		panic(fmt.Sprintf("invalid default route table: %v", err))
	}
	return table
}
