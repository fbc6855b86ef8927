package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	APIKey          string
	AccountID       string
	ResourceGroupID string
	AccessGroupName string
	RoleID          string
	SiteToken       string

	GrantTTLDays  int
	RateLimit     int
	RateWindow    time.Duration
	SweepInterval time.Duration

	IAMBaseURL      string
	UserMgmtBaseURL string
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "gatepass"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	groupName := os.Getenv("ACCESS_GROUP_NAME")
	if groupName == "" {
		groupName = "QZD35G-student-access"
	}

	roleID := os.Getenv("ROLE_ID")
	if roleID == "" {
		roleID = "crn:v1:bluemix:public:iam::::role:Viewer"
	}

	cfg := Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		APIKey:          os.Getenv("IBM_API_KEY"),
		AccountID:       os.Getenv("ACCOUNT_ID"),
		ResourceGroupID: os.Getenv("RESOURCE_GROUP_ID"),
		AccessGroupName: groupName,
		RoleID:          roleID,
		SiteToken:       os.Getenv("SITE_TOKEN"),

		GrantTTLDays:  envInt("GRANT_TTL_DAYS", 7),
		RateLimit:     envInt("RATE_LIMIT", 5),
		RateWindow:    time.Duration(envInt("RATE_WINDOW_HOURS", 24)) * time.Hour,
		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_HOURS", 12)) * time.Hour,

		IAMBaseURL:      os.Getenv("IAM_BASE_URL"),
		UserMgmtBaseURL: os.Getenv("USER_MGMT_BASE_URL"),
	}

	var missing []string
	for _, required := range []struct {
		name  string
		value string
	}{
		{"IBM_API_KEY", cfg.APIKey},
		{"ACCOUNT_ID", cfg.AccountID},
		{"RESOURCE_GROUP_ID", cfg.ResourceGroupID},
	} {
		if strings.TrimSpace(required.value) == "" {
			missing = append(missing, required.name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
