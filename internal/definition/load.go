package definition

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/prototype/internal/ctxlog"
	"github.com/specialistvlad/prototype/internal/fsutil"
	"github.com/specialistvlad/prototype/internal/registry"
)

// FileExtension is the extension definition files are discovered by.
const FileExtension = ".hcl"

// LoadPath decodes path, or every definition file below it when it is a
// directory, in lexical order with a single Decoder. Later definitions of
// the same name replace earlier ones.
func LoadPath(ctx context.Context, path string, opts ...Option) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := discover(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered definition files.", "path", path, "count", len(files))

	reg := registry.New()
	decoder := NewDecoder(opts...)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %s: %w", file, err)
		}
		defs, err := decoder.DecodeFile(file, src)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			reg.Put(def.Entry())
		}
		logger.Debug("Definition file loaded.", "file", file, "prototypes", len(defs))
	}
	return reg, nil
}

func discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, FileExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to discover definition files in %s: %w", path, err)
	}
	return files, nil
}
