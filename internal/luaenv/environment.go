package luaenv

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/prototype/internal/ctxlog"
	"github.com/specialistvlad/prototype/internal/document"
	"github.com/specialistvlad/prototype/internal/fsutil"
	"github.com/specialistvlad/prototype/internal/registry"
	"github.com/specialistvlad/prototype/internal/searchpath"
	lua "github.com/yuin/gopher-lua"
	luar "layeh.com/gopher-luar"
)

const (
	// PrototypesGlobal is the global table scripts register prototypes in.
	PrototypesGlobal = "prototypes"

	scriptExtension = ".lua"
	// index of the file searcher in package.loaders, after preload
	luaLoaderIndex = 2
)

// Option configures an Environment.
type Option func(*Environment)

// WithBasePath makes `<base>/?.lua` the only module search template.
func WithBasePath(base string) Option {
	return func(e *Environment) {
		e.basePath = base
	}
}

// WithContext installs every binding as a global before any script runs.
// Values are converted with gopher-luar, so Go structs, maps and pointers
// reach scripts as userdata.
func WithContext(bindings map[string]any) Option {
	return func(e *Environment) {
		e.bindings = bindings
	}
}

// WithFinder sets where module files are read from. The default reads the
// local file system.
func WithFinder(finder fsutil.Finder) Option {
	return func(e *Environment) {
		e.finder = finder
	}
}

// Environment is one Lua state prepared for running prototype scripts.
type Environment struct {
	L *lua.LState

	basePath string
	bindings map[string]any
	finder   fsutil.Finder

	// set by the searchpath function, read by the file loader
	lastMiss *searchpath.NotFoundError
	// module name -> resolution failure, reset by every RunScript
	misses map[string]*searchpath.NotFoundError
}

// New creates an Environment with the standard libraries opened, bindings
// installed, an empty prototypes table, and module resolution routed
// through the searchpath package.
func New(opts ...Option) *Environment {
	e := &Environment{
		finder: fsutil.OSFinder{},
		misses: make(map[string]*searchpath.NotFoundError),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState()
	e.installBindings()
	e.L.SetGlobal(PrototypesGlobal, e.L.NewTable())
	e.installModuleLoading()
	return e
}

// Close releases the underlying Lua state.
func (e *Environment) Close() {
	e.L.Close()
}

func (e *Environment) installBindings() {
	for _, name := range slices.Sorted(maps.Keys(e.bindings)) {
		e.L.SetGlobal(name, luar.New(e.L, e.bindings[name]))
	}
}

func (e *Environment) installModuleLoading() {
	pkg := e.L.GetGlobal("package")
	if e.basePath != "" {
		base := strings.TrimSuffix(filepath.ToSlash(e.basePath), "/")
		e.L.SetField(pkg, "path", lua.LString(base+"/?"+scriptExtension))
	}
	e.L.SetField(pkg, "searchpath", e.L.NewFunction(e.searchPath))

	// require consults the registry copy of package.loaders.
	if loaders, ok := e.L.GetField(e.L.Get(lua.RegistryIndex), "_LOADERS").(*lua.LTable); ok {
		loaders.RawSetInt(luaLoaderIndex, e.L.NewFunction(e.loadModule))
	}
}

// searchPath implements package.searchpath(name, path [, sep [, rep]]).
func (e *Environment) searchPath(L *lua.LState) int {
	name := L.CheckString(1)
	templates := L.CheckString(2)
	sep := L.OptString(3, searchpath.DefaultNameSeparator)
	rep := L.OptString(4, searchpath.DefaultPathSeparator)

	found, err := searchpath.ResolveWith(e.finder, name, templates, sep, rep)
	if err != nil {
		var notFound *searchpath.NotFoundError
		if !errors.As(err, &notFound) {
			L.RaiseError("%s", err.Error())
			return 0
		}
		e.lastMiss = notFound
		L.Push(lua.LNil)
		L.Push(lua.LString(notFound.Diagnostic()))
		return 2
	}
	L.Push(lua.LString(found))
	return 1
}

// loadModule is the file searcher of package.loaders. It resolves the name
// through whatever package.searchpath currently is and reads the chunk with
// the Finder.
func (e *Environment) loadModule(L *lua.LState) int {
	name := L.CheckString(1)
	pkg := L.GetGlobal("package")

	templates, ok := L.GetField(pkg, "path").(lua.LString)
	if !ok {
		L.RaiseError("package.path must be a string")
		return 0
	}
	search := L.GetField(pkg, "searchpath")
	if search.Type() != lua.LTFunction {
		L.RaiseError("package.searchpath must be a function")
		return 0
	}

	e.lastMiss = nil
	L.Push(search)
	L.Push(lua.LString(name))
	L.Push(templates)
	L.Call(2, 2)
	found, msg := L.Get(-2), L.Get(-1)
	L.Pop(2)

	filename, ok := found.(lua.LString)
	if !ok {
		if e.lastMiss != nil {
			e.misses[name] = e.lastMiss
		}
		// require joins loader messages with "\n\t" itself.
		L.Push(lua.LString(strings.TrimPrefix(lua.LVAsString(msg), "\n\t")))
		return 1
	}

	rc, err := e.finder.FindResource(string(filename))
	if err != nil {
		L.RaiseError("cannot read %s: %v", filename, err)
		return 0
	}
	defer rc.Close()

	fn, err := L.Load(rc, string(filename))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(fn)
	return 1
}

// RunScript requires file, with any trailing .lua removed. A module that was
// already loaded is not executed again. The context bounds the execution.
func (e *Environment) RunScript(ctx context.Context, file string) error {
	logger := ctxlog.FromContext(ctx)
	module := strings.TrimSuffix(file, scriptExtension)
	clear(e.misses)

	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	start := time.Now()
	err := e.L.CallByParam(lua.P{
		Fn:      e.L.GetGlobal("require"),
		NRet:    1,
		Protect: true,
	}, lua.LString(module))
	if err != nil {
		if notFound, ok := e.misses[module]; ok {
			err = notFound
		}
		logger.Debug("Script failed.", "module", module, "error", err)
		return &ScriptError{Module: module, Err: err}
	}
	e.L.Pop(1)

	logger.Debug("Script executed.", "module", module, "duration", time.Since(start))
	return nil
}

// Registry extracts the prototypes table into a Registry.
func (e *Environment) Registry() (*registry.Registry, error) {
	return Extract(e.L)
}

// ComputeData converts the prototypes table into the document handed to the
// deserializer: {name: {class: data}}.
func (e *Environment) ComputeData() (*document.Object, error) {
	reg, err := e.Registry()
	if err != nil {
		return nil, err
	}
	return reg.Document(), nil
}
