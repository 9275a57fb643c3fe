// Package browser launches and drives the Chromium session a test runs in.
package browser

import "strings"

// Flags always passed to the browser process.
var stealthFlags = map[string]string{
	"disable-blink-features": "AutomationControlled",
	"disable-setuid-sandbox": "",
	"disable-features":       "IsolateOrigins,site-per-process",
}

// Options is the session configuration object.
type Options struct {
	Headless    bool     `mapstructure:"headless"`
	NoSandbox   bool     `mapstructure:"no_sandbox"`
	Bin         string   `mapstructure:"bin"`           // browser binary, looked up when empty
	UserDataDir string   `mapstructure:"user_data_dir"` // persistent profile directory
	Flags       []string `mapstructure:"args"`          // extra flags as "name" or "name=value"
	Profile     Profile  `mapstructure:"profile"`
}

// DefaultOptions returns headless, sandboxless options with the default profile.
func DefaultOptions() Options {
	return Options{
		Headless:  true,
		NoSandbox: true,
		Profile:   DefaultProfile(),
	}
}

// splitFlag turns "--name=value" into ("name", "value").
func splitFlag(f string) (string, string) {
	name, value, _ := strings.Cut(strings.TrimLeft(f, "-"), "=")
	return name, value
}
