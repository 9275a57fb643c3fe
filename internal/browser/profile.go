package browser

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// DefaultUserAgent is a desktop Chrome user agent string
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Profile is the fingerprint a session presents. It is applied once, when
// the page is created, and never patched afterwards.
type Profile struct {
	UserAgent string   `mapstructure:"user_agent" json:"userAgent"`
	Width     int      `mapstructure:"width" json:"width"`
	Height    int      `mapstructure:"height" json:"height"`
	Languages []string `mapstructure:"languages" json:"languages"`
	Platform  string   `mapstructure:"platform" json:"platform"`

	HideWebdriver    bool `mapstructure:"hide_webdriver" json:"hideWebdriver"`
	ChromeRuntime    bool `mapstructure:"chrome_runtime" json:"chromeRuntime"`
	PatchPermissions bool `mapstructure:"patch_permissions" json:"patchPermissions"`
}

// DefaultProfile returns the 1920x1080 desktop profile.
func DefaultProfile() Profile {
	return Profile{
		UserAgent:        DefaultUserAgent,
		Width:            1920,
		Height:           1080,
		Languages:        []string{"en-US", "en"},
		Platform:         "Win32",
		HideWebdriver:    true,
		ChromeRuntime:    true,
		PatchPermissions: true,
	}
}

// AcceptLanguage renders Languages as an Accept-Language header value.
func (p Profile) AcceptLanguage() string {
	return strings.Join(p.Languages, ",")
}

const (
	webdriverSnippet = `Object.defineProperty(navigator, 'webdriver', { get: () => false });`
	chromeSnippet    = `window.chrome = window.chrome || {}; window.chrome.runtime = window.chrome.runtime || {};`

	permissionsSnippet = `if (navigator.permissions && navigator.permissions.query) {
		const originalQuery = navigator.permissions.query.bind(navigator.permissions);
		navigator.permissions.query = (parameters) => (
			parameters && parameters.name === 'notifications'
				? Promise.resolve({ state: Notification.permission })
				: originalQuery(parameters)
		);
	}`
)

// Script returns the document-start script that installs the profile's
// patches, or "" when none are enabled.
func (p Profile) Script() string {
	var parts []string
	if p.HideWebdriver {
		parts = append(parts, webdriverSnippet)
	}
	if p.ChromeRuntime {
		parts = append(parts, chromeSnippet)
	}
	if p.PatchPermissions {
		parts = append(parts, permissionsSnippet)
	}
	if len(p.Languages) > 0 {
		langs, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(p.Languages)
		parts = append(parts, "Object.defineProperty(navigator, 'languages', { get: () => "+langs+" });")
	}
	if p.Platform != "" {
		platform, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(p.Platform)
		parts = append(parts, "Object.defineProperty(navigator, 'platform', { get: () => "+platform+" });")
	}
	if len(parts) == 0 {
		return ""
	}
	return "(() => {\n" + strings.Join(parts, "\n") + "\n})();"
}
