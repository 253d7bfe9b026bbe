package tin

import (
	"errors"
	"fmt"
)

// Mesh errors. All of these abort the operation that returned them.
var (
	ErrDisconnected        = errors.New("point has no adjacency")
	ErrInvalidPoint        = errors.New("invalid point id")
	ErrNotTriangulated     = errors.New("mesh is not triangulated")
	ErrAlreadyTriangulated = errors.New("mesh is already triangulated")
	ErrDegenerate          = errors.New("degenerate point set")
	ErrHullRing            = errors.New("hull ring does not close")
	ErrTopology            = errors.New("inconsistent mesh topology")
	ErrIndexMismatch       = errors.New("triangle index does not match triangle count")
	ErrNoPath              = errors.New("no path between points")
	ErrNotLegal            = errors.New("line cannot be inserted between points")
	ErrChainLoop           = errors.New("chain revisits a point")
	ErrMalformedChain      = errors.New("malformed polygon chain")
	ErrUnknownFeature      = errors.New("unknown feature")
	ErrScratchBusy         = errors.New("scratch space already in use")
)

// Feature errors. These are returned wrapped in a *FeatureError.
var (
	ErrKnot               = errors.New("polygon intersects itself")
	ErrInsufficientPoints = errors.New("insufficient feature points")
	ErrZeroArea           = errors.New("polygon has zero area")
)

// FeatureError reports a single feature that was dropped. Edges inserted
// while trying to thread the feature stay in the mesh.
type FeatureError struct {
	Type FeatureType
	Name string
	Err  error
}

func (e *FeatureError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s feature %q dropped: %v", e.Type, e.Name, e.Err)
	}
	return fmt.Sprintf("%s feature dropped: %v", e.Type, e.Err)
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// IsFeatureError reports whether err only affects a single feature.
func IsFeatureError(err error) bool {
	var fe *FeatureError
	return errors.As(err, &fe)
}

// isFeatureLevel reports whether err only concerns the feature being threaded.
func isFeatureLevel(err error) bool {
	for _, target := range []error{
		ErrNoPath, ErrNotLegal, ErrChainLoop, ErrMalformedChain,
		ErrKnot, ErrInsufficientPoints, ErrZeroArea,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
