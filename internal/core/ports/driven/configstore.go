package driven

// ConfigStore is a flat key/value view of the configuration. Keys are
// dotted paths such as "pool.timeout" or "retrieval.search.k".
//
// The typed getters return the zero value for a missing key or a value of
// another type. GetInt and GetFloat also accept numeric strings, and
// GetFloat accepts integers.
type ConfigStore interface {
	// Get reports whether key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat(key string) float64
	GetStringSlice(key string) []string

	// Set stores value and writes the configuration through.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file, or "" for stores without one.
	Path() string
}
