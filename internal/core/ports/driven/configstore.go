package driven

// ConfigStore holds operator settings as flat dot keys such as
// "pipeline.call_delay" or "pricing.gpt-4o.input_per_mtok".
//
// Typed getters return the zero value for a missing key or a value of the
// wrong type; services.SettingsLoader applies defaults on top.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	// GetInt accepts any whole number, including TOML integers decoded as int64.
	GetInt(key string) int
	GetBool(key string) bool
	// GetFloat widens integers, so "pricing.x.input_per_mtok = 1" reads as 1.0.
	GetFloat(key string) float64
	GetStringSlice(key string) []string

	// Keys lists stored keys under a dot prefix in sorted order.
	Keys(prefix string) []string

	// Set stores a value and persists it. A failed save leaves the
	// previous value in place.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the settings live, or ":memory:".
	Path() string
}
