// package config provides functions and values
// for reading and validating batch relay service configuration
package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel                    string
	BatchRelayServicePort       string
	BatchBackendHostURLRaw      string
	BatchBackendHostURLParsed   url.URL
	BatchPath                   string
	HTTPClientTimeoutSecondsRaw string
	HTTPClientTimeout           time.Duration
}

const (
	LOG_LEVEL_ENVIRONMENT_KEY                   = "LOG_LEVEL"
	DEFAULT_LOG_LEVEL                           = "INFO"
	BATCH_RELAY_SERVICE_PORT_ENVIRONMENT_KEY    = "BATCH_RELAY_SERVICE_PORT"
	DEFAULT_BATCH_RELAY_SERVICE_PORT            = "7778"
	BATCH_BACKEND_HOST_URL_ENVIRONMENT_KEY      = "BATCH_BACKEND_HOST_URL"
	DEFAULT_BATCH_BACKEND_HOST_URL              = "http://localhost:8080"
	BATCH_PATH_ENVIRONMENT_KEY                  = "BATCH_PATH"
	DEFAULT_BATCH_PATH                          = "/batch"
	HTTP_CLIENT_TIMEOUT_SECONDS_ENVIRONMENT_KEY = "HTTP_CLIENT_TIMEOUT_SECONDS"
	DEFAULT_HTTP_CLIENT_TIMEOUT_SECONDS         = "10"
)

// EnvOrDefault fetches an environment variable value, or if not set returns the fallback value
func EnvOrDefault(key string, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// ReadConfig attempts to parse service config from environment values
// the returned config may be invalid and should be validated via the `Validate`
// function of the Config package before use
func ReadConfig() Config {
	rawBackendHostURL := EnvOrDefault(BATCH_BACKEND_HOST_URL_ENVIRONMENT_KEY, DEFAULT_BATCH_BACKEND_HOST_URL)

	// best effort parsing of values that have richer types;
	// invalid values are caught by `Validate` using the raw strings
	parsedBackendHostURL, _ := url.Parse(rawBackendHostURL)
	if parsedBackendHostURL == nil {
		parsedBackendHostURL = &url.URL{}
	}

	rawTimeoutSeconds := EnvOrDefault(HTTP_CLIENT_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_HTTP_CLIENT_TIMEOUT_SECONDS)
	timeoutSeconds, _ := strconv.Atoi(rawTimeoutSeconds)

	return Config{
		LogLevel:                    EnvOrDefault(LOG_LEVEL_ENVIRONMENT_KEY, DEFAULT_LOG_LEVEL),
		BatchRelayServicePort:       EnvOrDefault(BATCH_RELAY_SERVICE_PORT_ENVIRONMENT_KEY, DEFAULT_BATCH_RELAY_SERVICE_PORT),
		BatchBackendHostURLRaw:      rawBackendHostURL,
		BatchBackendHostURLParsed:   *parsedBackendHostURL,
		BatchPath:                   EnvOrDefault(BATCH_PATH_ENVIRONMENT_KEY, DEFAULT_BATCH_PATH),
		HTTPClientTimeoutSecondsRaw: rawTimeoutSeconds,
		HTTPClientTimeout:           time.Duration(timeoutSeconds) * time.Second,
	}
}
