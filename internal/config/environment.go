package config

import (
	"strings"
	"time"
)

// Mode selects the development or production backend profile.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultDashboardTimeout = 60 * time.Second

	developmentBackendURL = "http://127.0.0.1:5000"
	productionBackendURL  = "https://your-app-name.up.railway.app"
	apiPath               = "/api"
)

// Environment is the runtime information the API base is derived from. It is
// resolved once at startup and handed to the API client, so a session always
// talks to the same base URL.
type Environment struct {
	Hostname   string
	Mode       Mode
	APIURL     string
	BackendURL string
}

// IsProduction reports whether the production profile applies. Hosted
// domains always force production; any host other than a loopback name
// counts as deployed.
func (e Environment) IsProduction() bool {
	host := strings.ToLower(strings.TrimSpace(e.Hostname))
	if strings.Contains(host, "railway.app") {
		return true
	}
	if e.Mode == ModeProduction {
		return true
	}
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}

// ResolveAPIBase returns the base URL every API path is appended to.
func ResolveAPIBase(env Environment) string {
	if env.IsProduction() {
		if env.APIURL != "" {
			return strings.TrimRight(env.APIURL, "/")
		}
		return productionBackendURL + apiPath
	}
	return developmentBackendURL + apiPath
}

// ResolveBackendURL returns the backend root, without the /api suffix.
func ResolveBackendURL(env Environment) string {
	if env.IsProduction() {
		if env.BackendURL != "" {
			return strings.TrimRight(env.BackendURL, "/")
		}
		return productionBackendURL
	}
	return developmentBackendURL
}

// EnvironmentInfo is the startup summary logged by the binaries.
type EnvironmentInfo struct {
	IsProduction bool   `json:"isProduction"`
	APIURL       string `json:"apiUrl"`
	BackendURL   string `json:"backendUrl"`
	Mode         Mode   `json:"mode"`
	Hostname     string `json:"hostname"`
}

// Info summarizes env for logging.
func (e Environment) Info() EnvironmentInfo {
	return EnvironmentInfo{
		IsProduction: e.IsProduction(),
		APIURL:       ResolveAPIBase(e),
		BackendURL:   ResolveBackendURL(e),
		Mode:         e.Mode,
		Hostname:     e.Hostname,
	}
}
