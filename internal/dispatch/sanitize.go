package dispatch

import (
	"os"
	"strings"
)

// sensitiveEnvPrefixes are env var name prefixes stripped from subprocess
// environments. Prevents credential leakage into the checkout, pip, or the
// entry point beyond the single token it is meant to receive.
var sensitiveEnvPrefixes = []string{
	"ADO_",
	"AZURE_",
	"SYSTEM_ACCESSTOKEN",
	"MIGACCEL_",
	"AWS_SECRET",
	"AWS_SESSION",
	"GITHUB_TOKEN",
	"OPENAI_API",
	"ANTHROPIC_API",
}

// sensitiveEnvExact are env var names stripped by exact match.
var sensitiveEnvExact = []string{
	"API_KEY",
	"API_SECRET",
	"SECRET_KEY",
	"PAT",
}

// SanitizedEnv returns os.Environ() with sensitive variables removed,
// except keep, which passes through unchanged. keep is the configured
// token variable the entry point reads.
func SanitizedEnv(keep string) []string {
	return sanitizeEnv(os.Environ(), keep)
}

// sanitizeEnv filters sensitive environment variables from the list.
func sanitizeEnv(environ []string, keep string) []string {
	clean := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			clean = append(clean, entry)
			continue
		}
		if keep != "" && name == keep {
			clean = append(clean, entry)
			continue
		}
		upper := strings.ToUpper(name)
		skip := false
		for _, prefix := range sensitiveEnvPrefixes {
			if strings.HasPrefix(upper, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			for _, exact := range sensitiveEnvExact {
				if upper == exact {
					skip = true
					break
				}
			}
		}
		if !skip {
			clean = append(clean, entry)
		}
	}
	return clean
}
