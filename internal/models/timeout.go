package models

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultGenerateTimeout bounds a generation step when neither the
// scenario nor the batch configuration says otherwise.
const DefaultGenerateTimeout = 2 * time.Minute

// Timeout is a tri-state generation deadline. A nil *Timeout means
// "unset": resolution falls through to the next precedence level. A
// Timeout with None set means "explicitly unlimited" and stops the
// fallthrough; otherwise Duration holds the deadline.
type Timeout struct {
	Duration time.Duration
	None     bool
}

// NoTimeout returns the explicit "wait indefinitely" marker.
func NoTimeout() *Timeout {
	return &Timeout{None: true}
}

// TimeoutAfter returns an explicit deadline.
func TimeoutAfter(d time.Duration) *Timeout {
	return &Timeout{Duration: d}
}

// Unlimited reports whether the timeout means "wait indefinitely".
func (t Timeout) Unlimited() bool {
	return t.None
}

// String renders the timeout for logs and summaries.
func (t Timeout) String() string {
	if t.None {
		return "none"
	}
	return t.Duration.String()
}

// ParseTimeout parses the scalar timeout forms accepted in suite files,
// configuration, and CLI flags: the literal "none" (or an explicit zero)
// for the unlimited marker, otherwise a Go duration string such as "45s"
// or "2m". A zero duration is treated as "none", matching how an explicit
// 0 disables deadlines elsewhere in the configuration.
func ParseTimeout(raw string) (*Timeout, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "none" || raw == "0" {
		return NoTimeout(), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", d)
	}
	if d == 0 {
		return NoTimeout(), nil
	}
	return TimeoutAfter(d), nil
}

// UnmarshalYAML accepts the same scalar forms as ParseTimeout. Omitting
// the field entirely leaves the *Timeout nil, which is the distinct
// "unset" state.
func (t *Timeout) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("timeout must be a duration string or \"none\"")
	}

	parsed, err := ParseTimeout(raw)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalYAML renders the timeout back into the accepted scalar forms.
func (t Timeout) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// ResolveTimeout applies the timeout precedence rules: the scenario's own
// explicit timeout (value or "none") wins over the batch default (value or
// "none"), and an unset level falls through, bottoming out at
// DefaultGenerateTimeout.
func ResolveTimeout(scenario, batch *Timeout) Timeout {
	if scenario != nil {
		return *scenario
	}
	if batch != nil {
		return *batch
	}
	return Timeout{Duration: DefaultGenerateTimeout}
}
