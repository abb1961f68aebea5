package pipeline

import (
	stderrors "errors"

	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/rank"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
)

// Thin builds the complete mesh described by opts and thins it.
// It performs no caching; see [Runner.Thin].
func Thin(opts Options) (*mesh.Mesh, *thin.Result, error) {
	if err := opts.ValidateForThin(); err != nil {
		return nil, nil, err
	}
	logger := opts.Logger

	m, err := mesh.Complete(opts.Nodes, opts.Weight)
	if err != nil {
		return nil, nil, coded(err)
	}
	layout := opts.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	m.SetLayout(layout)

	thinOpts := append(opts.ThinOptions(), thin.WithObserver(func(s thin.Step) {
		logger.Debug("removed edge",
			"iteration", s.Iteration,
			"edge", s.Edge.String(),
			"degree_a", s.DegreeA,
			"degree_b", s.DegreeB)
	}))
	res, err := thin.Thin(m, opts.Floor(), thinOpts...)
	if err != nil {
		return nil, nil, coded(err)
	}
	return m, res, nil
}

// coded translates core sentinel errors into coded errors.
func coded(err error) error {
	var e *errors.Error
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &e):
		return err
	case stderrors.Is(err, mesh.ErrInvalidSize):
		return errors.Wrap(errors.ErrCodeInvalidSize, err, "build mesh")
	case stderrors.Is(err, rank.ErrEmpty):
		return errors.Wrap(errors.ErrCodeEmptyStructure, err, "thin mesh")
	case stderrors.Is(err, mesh.ErrEdgeNotFound):
		return errors.Wrap(errors.ErrCodeEdgeNotFound, err, "thin mesh")
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "thin mesh")
	}
}
