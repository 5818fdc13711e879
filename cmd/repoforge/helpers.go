// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"
	"time"
)

// parseKeyValues turns repeated KEY=VALUE flag values into a map.
func parseKeyValues(flagName string, pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --%s value %q: expected KEY=VALUE", flagName, pair)
		}
		m[key] = value
	}
	return m, nil
}

// parseSince accepts either an absolute RFC 3339 timestamp or a relative
// duration ("10m" means "10 minutes ago").
func parseSince(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q: expected a duration (e.g. 10m) or an RFC 3339 timestamp", value)
}
