// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin the config directory. os.UserHomeDir()
// does not reliably respect the HOME environment variable on every platform,
// so pointing HOME at a temp dir is not enough.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path, primarily for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
