package di

// Token is a typed handle to a named service in the container. It pairs a
// service name with its Go type so lookups need no caller-side assertions.
type Token[T any] struct {
	name string
}

// NewToken creates a token for the given service name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the service name the token resolves against.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a lazy factory for the token's service.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token's service. It panics on a type mismatch,
// which indicates a wiring bug rather than a runtime condition.
func GetToken[T any](c ServiceRegistry, token Token[T]) T {
	return c.Get(token.name).(T)
}
