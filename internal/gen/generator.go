package gen

import (
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/querycheck/querycheck/internal/canon"
	"github.com/querycheck/querycheck/internal/scan"
)

// Runner executes the pipeline over one set of loaded packages. Loading
// everything in one pass keeps type identity shared between modules and
// providers, which exact-identity resolution depends on.
type Runner struct {
	cfg     *Config
	log     *zap.Logger
	verbose bool
	dir     string
	outPath string

	fset  *token.FileSet
	types map[string]*types.Package
	reg   *canon.Registry
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger routes warnings, summaries, and traces to log. The default
// discards them.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithVerbose enables per-member structural traces during Generate. They
// are logged at debug level.
func WithVerbose(v bool) RunnerOption {
	return func(r *Runner) { r.verbose = v }
}

// WithDir sets the directory package loading runs from, typically the
// config file's directory.
func WithDir(dir string) RunnerOption {
	return func(r *Runner) { r.dir = dir }
}

// WithOutputPath declares the import path of the package the generated
// file is written into. References to that package render unqualified and
// its import is dropped, since a file cannot import its own package.
// NewRunner infers this from the loaded package directories; NewRunnerFrom
// falls back to matching the configured output package name.
func WithOutputPath(path string) RunnerOption {
	return func(r *Runner) { r.outPath = path }
}

// NewRunner loads every package named by cfg and builds the canonical
// registry from the provider packages.
func NewRunner(cfg *Config, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		cfg:   cfg,
		log:   zap.NewNop(),
		fset:  token.NewFileSet(),
		types: make(map[string]*types.Package),
	}
	for _, opt := range opts {
		opt(r)
	}

	paths := collectPaths(cfg)
	pcfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedImports |
			packages.NeedDeps,
		Fset: r.fset,
		Dir:  r.dir,
	}
	pkgs, err := packages.Load(pcfg, paths...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	var loadErrs []string
	for _, p := range pkgs {
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
		if p.Types != nil {
			r.types[p.PkgPath] = p.Types
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("load packages: %s", strings.Join(loadErrs, "; "))
	}
	for _, path := range paths {
		if r.types[path] == nil {
			return nil, fmt.Errorf("package %s did not load", path)
		}
	}
	if r.outPath == "" {
		r.outPath = outputPath(r.dir, cfg.Output.File, pkgs)
	}
	if err := r.buildRegistry(); err != nil {
		return nil, err
	}
	r.log.Info("packages loaded",
		zap.Int("packages", len(paths)),
		zap.Int("canonical values", r.reg.Len()))
	return r, nil
}

// NewRunnerFrom builds a Runner over packages that are already
// type-checked. Embedders and tests that hold their own packages use this
// instead of going through the go toolchain.
func NewRunnerFrom(cfg *Config, fset *token.FileSet, pkgs map[string]*types.Package, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		cfg:   cfg,
		log:   zap.NewNop(),
		fset:  fset,
		types: pkgs,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.outPath == "" {
		// Without directories to compare, infer the output package by name.
		for _, path := range collectPaths(cfg) {
			if p := pkgs[path]; p != nil && p.Name() == cfg.Output.Package {
				r.outPath = path
				break
			}
		}
	}
	if err := r.buildRegistry(); err != nil {
		return nil, err
	}
	return r, nil
}

// outputPath locates the generated file's directory among the loaded
// packages and reports that package's import path. Empty when the file
// lands in a directory nothing was loaded from; everything then stays
// qualified.
func outputPath(dir, file string, pkgs []*packages.Package) string {
	abs, err := filepath.Abs(filepath.Join(dir, file))
	if err != nil {
		return ""
	}
	outDir := filepath.Dir(abs)
	for _, p := range pkgs {
		if len(p.GoFiles) > 0 && filepath.Dir(p.GoFiles[0]) == outDir {
			return p.PkgPath
		}
	}
	return ""
}

func (r *Runner) buildRegistry() error {
	providers := make([]*types.Package, 0, len(r.cfg.Canon))
	for _, c := range r.cfg.Canon {
		pkg := r.types[c.Pkg]
		if pkg == nil {
			return fmt.Errorf("canon package %s is not loaded", c.Pkg)
		}
		providers = append(providers, pkg)
	}
	reg, err := canon.New(providers...)
	if err != nil {
		return err
	}
	r.reg = reg
	return nil
}

// Scan runs the pipeline for a single module reference and returns its
// named descriptors in scan order.
func (r *Runner) Scan(ref scan.Ref) ([]Descriptor, error) {
	return r.scan(ref, zap.NewNop())
}

// ScanVerbose is Scan with a structural trace of every member, logged at
// debug level. Same contract, same result.
func (r *Runner) ScanVerbose(ref scan.Ref) ([]Descriptor, error) {
	return r.scan(ref, r.log)
}

func (r *Runner) scan(ref scan.Ref, trace *zap.Logger) ([]Descriptor, error) {
	ds, err := r.scanModule(ref, newImports(r.outPath), trace)
	if err != nil {
		return nil, err
	}
	return assignNames(ds, r.log), nil
}

// Generate scans every configured module, names the aggregate sequence,
// and renders the descriptor file.
func (r *Runner) Generate() (*GeneratedFile, error) {
	im := newImports(r.outPath)
	descriptorType := im.sel(canon.CheckPath, "check", "Descriptor")
	trace := zap.NewNop()
	if r.verbose {
		trace = r.log
	}

	var (
		all     []Descriptor
		modules []string
	)
	for _, ms := range r.cfg.Modules {
		ref := scan.Ref{PkgPath: ms.Pkg, TypeName: ms.Type}
		ds, err := r.scanModule(ref, im, trace)
		if err != nil {
			return nil, err
		}
		all = append(all, ds...)
		modules = append(modules, ref.String())
	}
	all = assignNames(all, r.log)
	return renderFile(r.cfg.Output, descriptorType, im, modules, all)
}

// scanModule resolves one module and synthesizes a descriptor per
// qualifying member. Descriptors come back unnamed; naming happens over
// the full emitted sequence.
func (r *Runner) scanModule(ref scan.Ref, im *imports, trace *zap.Logger) ([]Descriptor, error) {
	pkg := r.types[ref.PkgPath]
	if pkg == nil {
		return nil, fmt.Errorf("package %s is not loaded", ref.PkgPath)
	}
	mod, err := scan.Resolve(pkg, ref.TypeName)
	if err != nil {
		return nil, err
	}
	if !mod.Singleton() {
		r.log.Warn("module is not a singleton",
			zap.String("module", mod.Name),
			zap.String("pkg", mod.Pkg.Path()),
			zap.Int("instances", mod.InstanceCount))
	}

	members := mod.Members(r.fset)
	trace.Debug("scanning module",
		zap.String("module", mod.Name),
		zap.String("pkg", mod.Pkg.Path()),
		zap.Int("members", len(members)))

	var (
		descs    []Descriptor
		examined []ExaminedMember
	)
	for _, mem := range members {
		examined = append(examined, ExaminedMember{Name: mem.RawName, Kind: mem.Kind.String()})
		trace.Debug("member",
			zap.String("name", mem.RawName),
			zap.String("kind", mem.Kind.String()),
			zap.String("declared", mem.Pos().String()),
			zap.String("structure", memberLabel(mem)))
		shape, err := scan.Classify(mem.Result)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", mod.Name, mem.RawName, err)
		}
		if shape.Kind == scan.NoShape {
			trace.Debug("member skipped",
				zap.String("name", mem.RawName),
				zap.String("result", typeLabel(mem.Result)))
			continue
		}
		d, err := r.synthesize(mod, mem, shape, im, trace)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	if len(descs) == 0 {
		return nil, &NoQualifyingMembersError{Module: mod.Name, Pkg: mod.Pkg.Path(), Examined: examined}
	}
	r.log.Info("module scanned",
		zap.String("module", mod.Name),
		zap.Int("checks", len(descs)),
		zap.Strings("members", rawNames(descs)))
	return descs, nil
}

func rawNames(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.RawName
	}
	return out
}

func collectPaths(cfg *Config) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, m := range cfg.Modules {
		add(m.Pkg)
	}
	for _, c := range cfg.Canon {
		add(c.Pkg)
	}
	return paths
}

// ExaminedMember names one member the scan looked at.
type ExaminedMember struct {
	Name string
	Kind string
}

// NoQualifyingMembersError reports a module where no member has a
// checkable result shape. It lists everything examined so the usual fix, a
// wrong result type, is visible from the message alone.
type NoQualifyingMembersError struct {
	Module   string
	Pkg      string
	Examined []ExaminedMember
}

func (e *NoQualifyingMembersError) Error() string {
	if len(e.Examined) == 0 {
		return fmt.Sprintf("module %s.%s has no members", e.Pkg, e.Module)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "module %s.%s has no checkable members; examined: ", e.Pkg, e.Module)
	for i, m := range e.Examined {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%s)", m.Name, m.Kind)
	}
	return b.String()
}
