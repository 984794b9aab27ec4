// Package loader runs independent script bundles in parallel, one Lua
// environment per bundle, and merges their registries.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/prototype/internal/ctxlog"
	"github.com/specialistvlad/prototype/internal/fsutil"
	"github.com/specialistvlad/prototype/internal/luaenv"
	"github.com/specialistvlad/prototype/internal/registry"
	"golang.org/x/sync/errgroup"
)

const scriptExtension = ".lua"

// Bundle is a set of scripts sharing one environment.
type Bundle struct {
	Name     string
	BasePath string
	// Scripts are run in order. When empty, every .lua file below BasePath
	// is run in lexical order.
	Scripts []string
	Context map[string]any
	// Finder overrides the file system finder when set.
	Finder fsutil.Finder
}

type job struct {
	index  int
	bundle Bundle
}

// Load runs the bundles on up to workers goroutines. The registries are
// merged in bundle order, so a later bundle wins a name collision. The first
// failure cancels the remaining bundles.
func Load(ctx context.Context, bundles []Bundle, workers int) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, max(len(bundles), 1))
	logger.Debug("Loading bundles.", "bundles", len(bundles), "workers", workers)

	results := make([]*registry.Registry, len(bundles))
	jobs := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	for workerID := 0; workerID < workers; workerID++ {
		g.Go(func() error {
			return worker(gctx, jobs, results, workerID)
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i, b := range bundles {
			select {
			case jobs <- job{index: i, bundle: b}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := registry.New()
	for _, reg := range results {
		merged.Merge(reg)
	}
	logger.Debug("Bundles loaded.", "prototypes", merged.Len())
	return merged, nil
}

func worker(ctx context.Context, jobs <-chan job, results []*registry.Registry, workerID int) error {
	ctx, logger := ctxlog.With(ctx, "workerID", workerID)
	logger.Debug("Worker started.")

	for j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		bundleCtx, workerLogger := ctxlog.With(ctx, "bundle", j.bundle.Name)
		workerLogger.Debug("Worker picked up bundle.")
		reg, err := LoadBundle(bundleCtx, j.bundle)
		if err != nil {
			workerLogger.Error("Bundle failed.", "error", err)
			return fmt.Errorf("bundle '%s': %w", j.bundle.Name, err)
		}
		results[j.index] = reg
		workerLogger.Debug("Bundle loaded.", "prototypes", reg.Len())
	}
	logger.Debug("Worker finished.")
	return nil
}

// LoadBundle runs the scripts of b in a fresh environment and extracts its
// registry.
func LoadBundle(ctx context.Context, b Bundle) (*registry.Registry, error) {
	scripts := b.Scripts
	if len(scripts) == 0 {
		discovered, err := DiscoverScripts(ctx, b.BasePath, b.Finder)
		if err != nil {
			return nil, err
		}
		scripts = discovered
	}

	opts := []luaenv.Option{luaenv.WithBasePath(b.BasePath), luaenv.WithContext(b.Context)}
	if b.Finder != nil {
		opts = append(opts, luaenv.WithFinder(b.Finder))
	}
	env := luaenv.New(opts...)
	defer env.Close()

	for _, script := range scripts {
		if err := env.RunScript(ctx, script); err != nil {
			return nil, err
		}
	}
	return env.Registry()
}

// DiscoverScripts lists the module names of the .lua files below base.
// With an *fsutil.FSFinder the listing walks its fs.FS; any other finder,
// nil included, lists the operating system's file system. Files whose names
// contain a dot besides the extension are skipped, since the resolver would
// read the dot as a directory separator.
func DiscoverScripts(ctx context.Context, base string, finder fsutil.Finder) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	rels, err := listScripts(base, finder)
	if err != nil {
		return nil, fmt.Errorf("failed to discover scripts in %s: %w", base, err)
	}

	modules := make([]string, 0, len(rels))
	for _, rel := range rels {
		module := strings.TrimSuffix(rel, scriptExtension)
		if strings.Contains(module, ".") {
			logger.Warn("Skipping script with a dotted name.", "file", rel)
			continue
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// listScripts returns the slash separated paths of the scripts below base,
// relative to base.
func listScripts(base string, finder fsutil.Finder) ([]string, error) {
	if fsFinder, ok := finder.(*fsutil.FSFinder); ok {
		root := fsutil.CleanFSPath(base)
		files, err := fsutil.FindFSFilesByExtension(fsFinder.FS, root, scriptExtension)
		if err != nil {
			return nil, err
		}
		rels := make([]string, 0, len(files))
		for _, file := range files {
			if root != "." {
				file = strings.TrimPrefix(file, root+"/")
			}
			rels = append(rels, file)
		}
		return rels, nil
	}

	files, err := fsutil.FindFilesByExtension(base, scriptExtension)
	if err != nil {
		return nil, err
	}
	rels := make([]string, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(base, file)
		if err != nil {
			return nil, err
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels, nil
}
