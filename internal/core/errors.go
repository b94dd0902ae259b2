// Package core holds the error taxonomy and wire-level types shared by the
// trigger, target, state and program packages.
package core

import "errors"

// Sentinel errors. Callers wrap these with fmt.Errorf("...: %w", ErrX) to add
// context; switch/errors.Is against the sentinel, never against the wrapped
// message.
var (
	// ErrInvalidConfig marks a malformed definition file or a missing
	// required field in a trigger/target sub-config.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnknownTriggerType marks a trigger "type" tag with no registered
	// factory.
	ErrUnknownTriggerType = errors.New("unknown trigger type")

	// ErrUnknownTargetType marks a target tag with no registered factory.
	ErrUnknownTargetType = errors.New("unknown target type")

	// ErrInvalidCredential marks a source credential that failed to parse.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrPullError marks a transport failure while pulling from a source.
	ErrPullError = errors.New("pull error")

	// ErrNonMapAccess marks state.Set descending through an existing scalar
	// intermediate value.
	ErrNonMapAccess = errors.New("non-map access")

	// ErrIndexOutOfBound marks a state array index past the end of the
	// existing array.
	ErrIndexOutOfBound = errors.New("index out of bound")

	// ErrInvalidIndex marks a state array segment that does not parse as a
	// decimal index.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrUnimplemented marks a reserved expression variant (from_json).
	ErrUnimplemented = errors.New("unimplemented")

	// ErrPluginNotFound marks a missing plugin. The registry's
	// GetTriggerFactory/GetTargetFactory do not return it; they report a
	// lookup miss with ErrUnknownTriggerType/ErrUnknownTargetType.
	ErrPluginNotFound = errors.New("plugin not found")
)
