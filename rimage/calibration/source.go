// Package calibration keeps camera models in sync with calibration files on disk.
package calibration

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/camerageometry/logging"
	"go.viam.com/camerageometry/rimage/transform"
	"go.viam.com/camerageometry/ros"
)

// SourceConfig describes the calibration file a Source follows.
type SourceConfig struct {
	Path string
	// Bag selects the CameraInfo message when Path is a rosbag.
	Bag ros.BagSelector
	// OnReload, if set, is called from the watcher goroutine after every successful reload.
	OnReload func(*transform.PinholeCameraModel)
}

// A Source serves the camera model of a calibration file and reloads it when the file changes.
// Every reload builds a new model, so a model returned by Model is never modified afterwards and
// may be shared between goroutines.
type Source struct {
	cfg       SourceConfig
	path      string
	logger    logging.Logger
	modelOpts []transform.ModelOption

	model   *atomic.Pointer[transform.PinholeCameraModel]
	lastErr *atomic.Error
	reloads *atomic.Int64

	watcher *fsnotify.Watcher
	workers *goutils.StoppableWorkers
}

// NewSource loads the calibration at cfg.Path and starts watching it. The initial load must
// succeed; later failures are logged and leave the current model in place.
func NewSource(cfg SourceConfig, logger logging.Logger, opts ...transform.ModelOption) (*Source, error) {
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, err
	}
	s := &Source{
		cfg:       cfg,
		path:      path,
		logger:    logger.With("path", path),
		modelOpts: opts,
		model:     atomic.NewPointer[transform.PinholeCameraModel](nil),
		lastErr:   atomic.NewError(nil),
		reloads:   atomic.NewInt64(0),
	}
	model, err := s.load()
	if err != nil {
		return nil, err
	}
	s.model.Store(model)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// editors and calibration tools often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot watch calibration directory"), watcher.Close())
	}
	s.watcher = watcher
	s.workers = goutils.NewBackgroundStoppableWorkers(s.watch)
	return s, nil
}

func (s *Source) load() (*transform.PinholeCameraModel, error) {
	info, err := ros.ReadCameraInfoFile(s.path, s.cfg.Bag)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read calibration %s", s.path)
	}
	model := transform.NewPinholeCameraModel(s.logger, s.modelOpts...)
	if err := model.Load(info); err != nil {
		return nil, errors.Wrapf(err, "cannot load calibration %s", s.path)
	}
	return model, nil
}

func (s *Source) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warnw("calibration watcher error", "error", err)
		}
	}
}

func (s *Source) reload() {
	model, err := s.load()
	if err != nil {
		// a partially written file fails here and is picked up again on the next write
		s.lastErr.Store(err)
		s.logger.Warnw("keeping previous calibration", "error", err)
		return
	}
	s.lastErr.Store(nil)
	n := s.reloads.Inc()
	s.model.Store(model)
	s.logger.Infow("reloaded calibration", "reloads", n)
	if s.cfg.OnReload != nil {
		s.cfg.OnReload(model)
	}
}

// Model returns the most recently loaded camera model.
func (s *Source) Model() *transform.PinholeCameraModel {
	return s.model.Load()
}

// Reloads returns how many times the calibration was reloaded after the initial load.
func (s *Source) Reloads() int64 {
	return s.reloads.Load()
}

// LastError returns the error of the last reload attempt, or nil if it succeeded.
func (s *Source) LastError() error {
	return s.lastErr.Load()
}

// Close stops watching the calibration file.
func (s *Source) Close() error {
	s.workers.Stop()
	return s.watcher.Close()
}
