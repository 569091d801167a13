// Package dispatch runs the task list of an order's status.
package dispatch

// Config defines the dispatcher configuration.
type Config struct {
	// StopOnError skips the remaining tasks of a batch after the first failure.
	// Deferred actions of tasks that already ran still execute.
	StopOnError bool `yaml:"stop_on_error" koanf:"stop_on_error"`
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{StopOnError: false}
}
