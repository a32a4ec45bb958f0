package constants

// Context key types to avoid collisions when using context.WithValue.
// Empty structs carry no payload and allocate nothing.
type (
	// TraceKey is the context key for the trace identifier.
	TraceKey struct{}
	// RequestKey is the context key for the request identifier.
	RequestKey struct{}
	// ServiceKey is the context key for the service name.
	ServiceKey struct{}
	// ComponentKey is the context key for the component name.
	ComponentKey struct{}
	// UserKey is the context key for the user identifier.
	UserKey struct{}
	// SessionKey is the context key for the session identifier.
	SessionKey struct{}
)

// ContextKeys returns every context key the logger knows how to extract,
// in the order the extractor visits them.
func ContextKeys() []any {
	return []any{
		TraceKey{},
		RequestKey{},
		ServiceKey{},
		ComponentKey{},
		UserKey{},
		SessionKey{},
	}
}

// ContextKeyMap maps the log field name attached to an event to the
// context key its value is read from.
func ContextKeyMap() map[string]any {
	return map[string]any{
		"trace_id":   TraceKey{},
		"request_id": RequestKey{},
		"service":    ServiceKey{},
		"component":  ComponentKey{},
		"user":       UserKey{},
		"session_id": SessionKey{},
	}
}
