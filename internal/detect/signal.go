// Package detect notices, by any available signal, that the active
// conversation of the host application likely changed. No single host signal
// is reliable, so several independent sources run concurrently and all funnel
// into one idempotent handler on the Monitor; each source may fire zero, one,
// or many times for a single real navigation.
package detect

// Signal is an independent change-signal source. Subscribe registers the
// callback and starts the source; the returned stop function halts it.
// Sources give no ordering guarantee relative to each other and may invoke
// the callback redundantly.
type Signal interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Subscribe starts the source, invoking fn on every possible change.
	Subscribe(fn func()) (stop func(), err error)
}
