package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/fsutil"
	"github.com/vk/streamgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Loader builds graphs from HCL transformation files, creating step plugins
// from a catalog.
type Loader struct {
	catalog *catalog.Catalog
	evalCtx *hcl.EvalContext
}

// NewLoader creates a loader resolving step types against c. Expressions are
// evaluated with the process environment available as env.NAME.
func NewLoader(c *catalog.Catalog) *Loader {
	return NewLoaderWithEnv(c, os.Environ())
}

// NewLoaderWithEnv is like NewLoader with an explicit KEY=VALUE environment.
func NewLoaderWithEnv(c *catalog.Catalog, environ []string) *Loader {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &Loader{
		catalog: c,
		evalCtx: &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}},
	}
}

type parsedFile struct {
	path string
	root fileRoot
}

// Load parses every .hcl file under paths (files or directories) into one
// graph. Steps from all files are added before any hop, so hops may connect
// steps declared in different files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var parsed []parsedFile
	for _, path := range files {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		pf, err := l.decode(path, f.Body)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pf)
	}
	return l.build(ctx, defaultName(files), parsed)
}

// Parse builds a graph from a single in-memory transformation file.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*graph.Graph, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	pf, err := l.decode(filename, f.Body)
	if err != nil {
		return nil, err
	}
	return l.build(ctx, defaultName([]string{filename}), []parsedFile{pf})
}

func (l *Loader) decode(path string, body hcl.Body) (parsedFile, error) {
	pf := parsedFile{path: path}
	if diags := gohcl.DecodeBody(body, l.evalCtx, &pf.root); diags.HasErrors() {
		return pf, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return pf, nil
}

func (l *Loader) build(ctx context.Context, name string, files []parsedFile) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := graph.New(name)

	var settings *transformationBlock
	for _, f := range files {
		if f.root.Transformation == nil {
			continue
		}
		if settings != nil {
			return nil, fmt.Errorf("%s: duplicate transformation block", f.path)
		}
		settings = f.root.Transformation
	}
	if settings != nil {
		if settings.Name != "" {
			g.Name = settings.Name
		}
		g.BufferSize = settings.BufferSize
	}

	for _, f := range files {
		for _, sb := range f.root.Steps {
			plugin, err := l.catalog.New(sb.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: step %q: %w", f.path, sb.Name, err)
			}
			if sb.Config != nil {
				if err := l.configure(plugin, sb.Config.Body); err != nil {
					return nil, fmt.Errorf("%s: step %q: %w", f.path, sb.Name, err)
				}
			}
			if _, err := g.AddStep(sb.Name, sb.Type, plugin, sb.Distribute); err != nil {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
			logger.Debug("Step loaded.", "step", sb.Name, "type", sb.Type)
		}
	}

	for _, f := range files {
		for _, hb := range f.root.Hops {
			if hb.Enabled != nil && !*hb.Enabled {
				logger.Debug("Skipping disabled hop.", "from", hb.From, "to", hb.To)
				continue
			}
			if err := g.AddHop(hb.From, hb.To); err != nil {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
		}
	}

	logger.Debug("HCL loading complete.", "graph", g.Name, "steps", len(g.Steps()), "hops", len(g.Hops()))
	return g, nil
}

func defaultName(files []string) string {
	base := filepath.Base(files[0])
	return strings.TrimSuffix(base, filepath.Ext(base))
}
