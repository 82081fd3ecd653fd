package router

import (
	"net/http"
	"reflect"

	"hotelbooking/pkg/container"
	apperrors "hotelbooking/pkg/errors"
)

// Action binds a route to a method of a controller that lives in the
// container, for example router.Action(c, "controller.rooms", (*RoomController).Show).
// The controller is resolved on every dispatch, so transient controllers get
// a fresh instance per request. Without a container the controller is built
// from its zero value.
func Action[T any](c *container.Container, key string, method func(T, http.ResponseWriter, *http.Request, Params) error) Handler {
	return func(w http.ResponseWriter, r *http.Request, ps Params) error {
		if method == nil {
			return apperrors.HandlerResolution(key, nil)
		}
		if c == nil {
			return method(zeroController[T](), w, r, ps)
		}
		ctrl, err := container.Resolve[T](c, key)
		if err != nil {
			return apperrors.HandlerResolution(key, err)
		}
		return method(ctrl, w, r, ps)
	}
}

// zeroController returns new(E) when T is *E, and T's zero value otherwise.
func zeroController[T any]() T {
	var ctrl T
	if t := reflect.TypeOf((*T)(nil)).Elem(); t.Kind() == reflect.Pointer {
		ctrl = reflect.New(t.Elem()).Interface().(T)
	}
	return ctrl
}
