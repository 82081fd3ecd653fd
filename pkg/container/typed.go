package container

import "fmt"

// Resolve builds key and asserts the result to T.
func Resolve[T any](c *Container, key string) (T, error) {
	return ResolveWith[T](c, key, nil)
}

func ResolveWith[T any](c *Container, key string, params Params) (T, error) {
	var zero T
	v, err := c.ResolveWith(key, params)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &ResolutionError{Key: key, Kind: ErrNotInstantiable,
			Err: fmt.Errorf("resolved %T, want %T", v, zero)}
	}
	return t, nil
}

// MustResolve is for the composition root only, where a failure is a
// configuration bug.
func MustResolve[T any](c *Container, key string) T {
	t, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return t
}

// Param returns params[name] as T, or def when absent or of another type.
func Param[T any](params Params, name string, def T) T {
	if params == nil {
		return def
	}
	if v, ok := params[name].(T); ok {
		return v
	}
	return def
}

// Provide registers a typed singleton factory.
func Provide[T any](c *Container, key string, fn func(c *Container) (T, error)) {
	c.Singleton(key, func(c *Container, _ Params) (any, error) {
		return fn(c)
	})
}

// ProvideTransient registers a typed transient factory.
func ProvideTransient[T any](c *Container, key string, fn func(c *Container, params Params) (T, error)) {
	c.Bind(key, func(c *Container, params Params) (any, error) {
		return fn(c, params)
	})
}
