// Package testutil provides shared environment helpers for E2E tests. It
// depends only on stdlib so that E2E tests (which cannot import internal/)
// can use it.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AllowedOrgsEnv lists the GitHub organizations E2E tests may sync.
const AllowedOrgsEnv = "CALS_ALLOWED_TEST_ORGS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// AllowedOrg returns the organization named by orgEnvVar when it is listed
// in AllowedOrgsEnv. The reason is non-empty when E2E tests must not run.
func AllowedOrg(orgEnvVar string) (org, reason string) {
	org = os.Getenv(orgEnvVar)
	if org == "" {
		return "", orgEnvVar + " not set"
	}

	allowlist := os.Getenv(AllowedOrgsEnv)
	if allowlist == "" {
		return "", AllowedOrgsEnv + " not set"
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == org {
			return org, ""
		}
	}

	return "", fmt.Sprintf("%s=%q is not in %s=%q", orgEnvVar, org, AllowedOrgsEnv, allowlist)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
