package config

import "os"

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the Search Briefing API.
// It can be overridden with the BRIEFING_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("BRIEFING_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// APIToken returns the shared-secret token sent in X-API-Token.
func APIToken() string {
	return os.Getenv("BRIEFING_API_TOKEN")
}

// AdminToken returns the operator token sent in X-Admin-Token.
func AdminToken() string {
	return os.Getenv("BRIEFING_ADMIN_TOKEN")
}
