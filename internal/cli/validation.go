package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/tafsiri/tafsiri/internal/conntest"
)

// validateStoreProvider validates the store provider, defaulting to mongodb
func validateStoreProvider(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	switch input {
	case "":
		return "mongodb", nil
	case "mongodb", "sqlite":
		return input, nil
	default:
		return "", fmt.Errorf("invalid provider: %s (choose mongodb or sqlite)", input)
	}
}

// validatePort validates a TCP port number
func validatePort(input string, defaultValue string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}

	port, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("invalid port: %s (enter a number)", input)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("port must be between 1 and 65535, got: %d", port)
	}

	return input, nil
}

// validateHostPort validates a host:port pair
func validateHostPort(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("host and port are required (e.g. localhost:5432)")
	}

	host, port, err := net.SplitHostPort(input)
	if err != nil {
		return "", fmt.Errorf("invalid host:port %q: %v", input, err)
	}
	if host == "" {
		return "", fmt.Errorf("host is required in %q", input)
	}
	if _, err := validatePort(port, ""); err != nil {
		return "", err
	}

	return input, nil
}

// validateDBType validates a database kind accepted by the connection tester
func validateDBType(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("database type is required")
	}

	rawURL := conntest.BuildURL(connectionRequestFor(input, "localhost:1", "db"))
	if _, _, err := conntest.Resolve(rawURL); err != nil {
		return "", err
	}

	return input, nil
}
