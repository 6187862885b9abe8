package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
)

// Extension is the file extension of HCL model files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every HCL file found under paths and appends their top-level
// blocks to the model root in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()
	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.loadFile(ctx, model, hclFile, file); err != nil {
			return nil, err
		}
		model.Files = append(model.Files, file)
	}

	logger.Debug("HCL loading complete.", "files", len(model.Files), "blocks", len(model.Root.Children))
	return model, nil
}

// LoadSource parses a single in-memory HCL document.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	model := config.NewModel()
	if err := l.loadFile(ctx, model, hclFile, filename); err != nil {
		return nil, err
	}
	model.Files = append(model.Files, filename)
	return model, nil
}

func (l *Loader) loadFile(ctx context.Context, model *config.Model, f *hcl.File, filename string) error {
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("HCL file %s is not in native syntax", filename)
	}
	evalCtx, err := l.evalLocals(ctx, body)
	if err != nil {
		return err
	}
	for _, attr := range body.Attributes {
		return fmt.Errorf("%s: top-level attribute '%s' is not allowed, use a block", attr.SrcRange, attr.Name)
	}
	for _, block := range body.Blocks {
		if block.Type == localsBlock {
			continue
		}
		el, err := l.translateBlock(ctx, evalCtx, block)
		if err != nil {
			return err
		}
		model.Root.Children = append(model.Root.Children, el)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && filepath.Ext(p) == Extension {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == Extension {
			add(path)
		}
	}
	return allFiles, nil
}
