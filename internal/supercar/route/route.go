// Package route maps the console's navigation routes and their target
// parameter to configuration resources on the device.
package route

import (
	"errors"
	"fmt"

	"cloupeer.io/supercar/internal/supercar/schema"
)

// Route names a form surface.
type Route string

const (
	// Main is the vehicle-wide configuration form. It takes no target.
	Main Route = "main"
	// Motor is the motor configuration form, parameterized by the motor.
	Motor Route = "motor"
)

// StatusPath is the resource the status snapshot is read from.
const StatusPath = "supercar"

// Targets of the motor route.
const (
	TargetPropulsion = "propulsion"
	TargetSteering   = "steering"
)

var (
	// ErrUnknownTarget is matched by every UnknownTargetError.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrUnknownRoute is returned for a route that has no binding.
	ErrUnknownRoute = errors.New("unknown route")
)

// UnknownTargetError reports a target the route cannot be bound to.
type UnknownTargetError struct {
	Route  Route
	Target string
}

func (e *UnknownTargetError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("route %q requires a target (one of %v)", e.Route, Targets())
	}
	if e.Route == Main {
		return fmt.Sprintf("route %q does not take a target, got %q", e.Route, e.Target)
	}
	return fmt.Sprintf("route %q: unknown target %q (expected one of %v)", e.Route, e.Target, Targets())
}

func (e *UnknownTargetError) Is(target error) bool {
	return target == ErrUnknownTarget
}

// Binding is the configuration kind and the resource path a route resolves to.
type Binding struct {
	Kind schema.Kind
	Path string
}

// Targets returns the valid targets of the motor route.
func Targets() []string {
	return []string{TargetPropulsion, TargetSteering}
}

// Resolve binds route and target to a resource. It is a pure function.
func Resolve(route Route, target string) (Binding, error) {
	switch route {
	case Main:
		if target != "" {
			return Binding{}, &UnknownTargetError{Route: route, Target: target}
		}
		return Binding{Kind: schema.KindMain, Path: "supercar/config"}, nil
	case Motor:
		switch target {
		case TargetPropulsion:
			return Binding{Kind: schema.KindPropulsion, Path: "supercar/propulsion/config"}, nil
		case TargetSteering:
			return Binding{Kind: schema.KindSteering, Path: "supercar/steering/config"}, nil
		}
		return Binding{}, &UnknownTargetError{Route: route, Target: target}
	default:
		return Binding{}, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}
}

// ForKind returns the route and target that resolve to kind.
func ForKind(kind schema.Kind) (Route, string, error) {
	switch kind {
	case schema.KindMain:
		return Main, "", nil
	case schema.KindPropulsion:
		return Motor, TargetPropulsion, nil
	case schema.KindSteering:
		return Motor, TargetSteering, nil
	default:
		return "", "", fmt.Errorf("%w: %q", schema.ErrUnknownKind, kind)
	}
}
