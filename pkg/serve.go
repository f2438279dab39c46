package pkg

import (
	"context"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/ecopia-map/pointcloud_atlas/internal/rpc"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
)

type ServeOptions struct {
	Input          string
	Name           string
	TextureSize    int
	SessionOptions engine.SessionOptions
	ServerOptions  rpc.ServerOptions
}

type AtlasServe struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewAtlasServe(algorithmManager algorithm_manager.AlgorithmManager) *AtlasServe {
	return &AtlasServe{algorithmManager: algorithmManager}
}

// Loads the atlas and wires a session to a command server, without starting it
func (s *AtlasServe) NewServer(opts *ServeOptions) (*rpc.Server, *engine.Session, error) {
	name, size, err := LocateAtlas(opts.Input, opts.Name, opts.TextureSize)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := atlas.Load(opts.Input, name, size)
	if err != nil {
		return nil, nil, err
	}
	tools.LogOutput("> loaded atlas", name, "with", loaded.Metadata.AcceptedPoints, "points")

	pool := s.algorithmManager.GetWorkerPool()
	stage := classification.NewStageFromLoaded(loaded, s.algorithmManager.GetProximityFilter(), pool)
	session, err := engine.NewSession(loaded, stage, pool, opts.SessionOptions, nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := session.Recompute(true); err != nil {
		return nil, nil, err
	}

	return rpc.NewServer(session, opts.ServerOptions), session, nil
}

// Serves the atlas until ctx is done
func (s *AtlasServe) RunServe(ctx context.Context, opts *ServeOptions) error {
	server, _, err := s.NewServer(opts)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}
