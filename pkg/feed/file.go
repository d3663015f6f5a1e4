package feed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/validation"
)

// FileSource delivers the snapshot stored in a JSON or YAML file, and again
// whenever the file's modification time or size changes.
type FileSource struct {
	path     string
	interval time.Duration
	opts     options
}

// NewFileSource creates a source polling path every interval.
func NewFileSource(path string, interval time.Duration, opts ...Option) *FileSource {
	return &FileSource{
		path:     path,
		interval: validation.DefaultOrDuration(interval, time.Second),
		opts:     newOptions("file", opts),
	}
}

func (f *FileSource) Name() string { return "file:" + f.path }

type fileStamp struct {
	mod  time.Time
	size int64
}

// Run delivers the file once, then polls it until ctx is done. A file that
// cannot be read or decoded on the first attempt is an error; later failures
// are logged and the previous snapshot stays in place.
func (f *FileSource) Run(ctx context.Context, deliver func(topology.Snapshot)) error {
	stamp, err := f.load(deliver)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		info, err := os.Stat(f.path)
		if err != nil {
			f.opts.logger.Debug("snapshot file unavailable", logging.Path(f.path), logging.Error(err))
			continue
		}
		if info.ModTime().Equal(stamp.mod) && info.Size() == stamp.size {
			continue
		}
		next, err := f.load(deliver)
		if err != nil {
			f.opts.logger.Warn("snapshot file reload failed", logging.Path(f.path), logging.Error(err))
			// do not retry the same broken contents every tick
			stamp = fileStamp{mod: info.ModTime(), size: info.Size()}
			continue
		}
		stamp = next
	}
}

func (f *FileSource) load(deliver func(topology.Snapshot)) (fileStamp, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		f.opts.record("file", StatusReadError)
		return fileStamp{}, fmt.Errorf("stat snapshot %s: %w", f.path, err)
	}
	snap, diags, err := topology.ReadSnapshotFile(f.path)
	if err != nil {
		f.opts.record("file", StatusDecodeError)
		return fileStamp{}, err
	}
	f.opts.logDiagnostics(diags)
	f.opts.record("file", StatusOK)
	f.opts.logger.Info("snapshot file loaded",
		logging.Path(f.path),
		logging.Int("nodes", len(snap.Nodes)),
		logging.Int("edges", len(snap.Edges)),
	)
	deliver(snap)
	return fileStamp{mod: info.ModTime(), size: info.Size()}, nil
}
