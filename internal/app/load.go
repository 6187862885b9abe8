package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/hcl_adapter"
	"github.com/vk/morphocore/internal/yaml_adapter"
)

type source struct {
	loader config.Loader
	paths  []string
}

// LoadModel reads every configured model path into one model. Files are
// dispatched on their extension; directories are searched for both formats.
func (a *App) LoadModel(ctx context.Context) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading model...", "paths", a.config.ModelPaths)

	var hclPaths, yamlPaths []string
	for _, p := range a.config.ModelPaths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", p, err)
		}
		ext := filepath.Ext(p)
		switch {
		case info.IsDir():
			hclPaths = append(hclPaths, p)
			yamlPaths = append(yamlPaths, p)
		case ext == hcl_adapter.Extension:
			hclPaths = append(hclPaths, p)
		case slices.Contains(yaml_adapter.Extensions, ext):
			yamlPaths = append(yamlPaths, p)
		default:
			return nil, fmt.Errorf("unsupported model file %s: expected %s or one of %v", p, hcl_adapter.Extension, yaml_adapter.Extensions)
		}
	}

	var sources []source
	if len(hclPaths) > 0 {
		sources = append(sources, source{hcl_adapter.NewLoader(), hclPaths})
	}
	if len(yamlPaths) > 0 {
		sources = append(sources, source{yaml_adapter.NewLoader(), yamlPaths})
	}

	model := config.NewModel()
	for _, l := range sources {
		m, err := l.loader.Load(ctx, l.paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		model.Root.Children = append(model.Root.Children, m.Root.Children...)
		model.Files = append(model.Files, m.Files...)
	}
	if len(model.Files) == 0 {
		return nil, fmt.Errorf("no model files found in %v", a.config.ModelPaths)
	}
	logger.Info("Model loaded.", "files", len(model.Files), "blocks", len(model.Root.Children))
	return model, nil
}
