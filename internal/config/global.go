// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin the config directory. os.UserHomeDir does
// not reliably honor HOME on every platform, so tests set this instead.
var configDirOverride string

// SetConfigDirOverride pins the config directory, primarily for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}
