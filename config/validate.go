package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ValidLogLevels = [4]string{"TRACE", "DEBUG", "INFO", "ERROR"}
)

// Validate validates the provided config
// returning a list of errors that can be unwrapped with `errors.Unwrap`
// or nil if the config is valid
func Validate(config Config) error {
	var validLogLevel bool
	var allErrs error

	for _, validLevel := range ValidLogLevels {
		if config.LogLevel == validLevel {
			validLogLevel = true
			break
		}
	}

	if !validLogLevel {
		allErrs = fmt.Errorf("invalid %s specified %s, supported values are %v", LOG_LEVEL_ENVIRONMENT_KEY, config.LogLevel, ValidLogLevels)
	}

	_, err := strconv.Atoi(config.BatchRelayServicePort)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s", BATCH_RELAY_SERVICE_PORT_ENVIRONMENT_KEY, config.BatchRelayServicePort))
	}

	parsedBackendURL, err := url.Parse(config.BatchBackendHostURLRaw)

	if err != nil || parsedBackendURL.Scheme == "" || parsedBackendURL.Host == "" {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be an absolute url", BATCH_BACKEND_HOST_URL_ENVIRONMENT_KEY, config.BatchBackendHostURLRaw))
	}

	if !strings.HasPrefix(config.BatchPath, "/") {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must begin with /", BATCH_PATH_ENVIRONMENT_KEY, config.BatchPath))
	}

	timeoutSeconds, err := strconv.Atoi(config.HTTPClientTimeoutSecondsRaw)

	if err != nil || timeoutSeconds <= 0 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be a positive integer", HTTP_CLIENT_TIMEOUT_SECONDS_ENVIRONMENT_KEY, config.HTTPClientTimeoutSecondsRaw))
	}

	return allErrs
}
