package flume

import "strings"

// EventOptions are used to customize how an Event derives its collector
// headers from the upstream record.
//
// NB: The struct pointer options approach is used to be consistent with the
// `HandlerOptions` idiom used by log/slog, which the logging frameworks that
// host this package all follow.
type EventOptions struct {

	// Includes is a comma separated list of contextual map keys to copy into
	// the headers. When set, only the listed keys are copied, and Excludes is
	// ignored.
	Includes string

	// Excludes is a comma separated list of contextual map keys to omit from
	// the headers. When set (and Includes is not), every other contextual
	// entry is copied.
	Excludes string

	// Required is a comma separated list of contextual map keys that must be
	// present on the record. A missing key fails Event construction,
	// regardless of the Includes/Excludes selection.
	Required string

	// KeyPrefix is prepended to each copied contextual key in the headers.
	// The default is no prefix. The source map entry keeps its original key.
	KeyPrefix string

	// Compress controls whether SetBody runs the body through a gzip stream
	// before storing it.
	Compress bool

	// parsed key lists, populated by resolve
	includes []string
	excludes []string
	required []string
}

// DefaultEventOptions returns *EventOptions with all default values.
func DefaultEventOptions() *EventOptions {
	return &EventOptions{}
}

// resolve parses the comma separated key lists into usable form.
func (o *EventOptions) resolve() {
	o.includes = splitKeyList(o.Includes)
	o.excludes = splitKeyList(o.Excludes)
	o.required = splitKeyList(o.Required)
}

func (o *EventOptions) excluded(key string) bool {
	for i := 0; i < len(o.excludes); i++ {
		if o.excludes[i] == key {
			return true
		}
	}
	return false
}

// splitKeyList splits a comma separated key list, trimming whitespace around
// each entry and dropping empties.
func splitKeyList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		if k := strings.TrimSpace(parts[i]); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
