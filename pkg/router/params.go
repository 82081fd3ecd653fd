package router

import (
	"context"
	"strconv"

	apperrors "hotelbooking/pkg/errors"
)

type Param struct {
	Key   string
	Value string
}

// Params holds placeholder values in template order.
type Params []Param

// ByName returns the value of the named placeholder, or "".
func (ps Params) ByName(name string) string {
	for _, p := range ps {
		if p.Key == name {
			return p.Value
		}
	}
	return ""
}

// Values returns the captured values positionally.
func (ps Params) Values() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Value
	}
	return out
}

// Int64 parses the named placeholder as a positive identifier. A malformed
// identifier is reported as not found, the same as an unknown one.
func (ps Params) Int64(name string) (int64, error) {
	raw := ps.ByName(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound("No resource matches " + name + " " + strconv.Quote(raw))
	}
	return id, nil
}

type paramsKey struct{}

func withParams(ctx context.Context, ps Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, ps)
}

// ParamsFromContext returns the params of the route being served.
func ParamsFromContext(ctx context.Context) Params {
	ps, _ := ctx.Value(paramsKey{}).(Params)
	return ps
}
