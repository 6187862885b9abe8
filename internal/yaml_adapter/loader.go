package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
)

// Extensions are the file extensions of YAML model files.
var Extensions = []string{".yaml", ".yml"}

// Loader reads YAML model files.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every YAML file found under paths. Directories are walked
// recursively; files are loaded in lexical order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := findFiles(paths)
	if err != nil {
		return nil, err
	}
	model := config.NewModel()
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		if err := l.loadInto(ctx, model, src, file); err != nil {
			return nil, err
		}
	}
	logger.Debug("YAML loading complete.", "files", len(model.Files), "blocks", len(model.Root.Children))
	return model, nil
}

// LoadSource parses an in-memory YAML document.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	model := config.NewModel()
	if err := l.loadInto(ctx, model, src, filename); err != nil {
		return nil, err
	}
	return model, nil
}

// loadInto appends every document of src to the model root.
func (l *Loader) loadInto(ctx context.Context, model *config.Model, src []byte, filename string) error {
	logger := ctxlog.FromContext(ctx).With("file", filename)
	dec := yaml.NewDecoder(bytes.NewReader(src))
	t := translator{filename: filename}
	for docs := 0; ; docs++ {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			logger.Debug("Parsed YAML file.", "documents", docs)
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		children, err := t.blocks(doc.Content[0])
		if err != nil {
			return err
		}
		model.Root.Children = append(model.Root.Children, children...)
	}
	model.Files = append(model.Files, filename)
	return nil
}

func findFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(Extensions, filepath.Ext(p)) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return slices.Compact(files), nil
}
