package luaenv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/specialistvlad/prototype/internal/document"
	"github.com/specialistvlad/prototype/internal/fsutil"
	"github.com/specialistvlad/prototype/internal/searchpath"
	"github.com/specialistvlad/prototype/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func newMapEnv(t *testing.T, files map[string]string, opts ...Option) *Environment {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, src := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(src)}
	}
	opts = append([]Option{WithBasePath("protos"), WithFinder(fsutil.NewFSFinder(fsys))}, opts...)
	env := New(opts...)
	t.Cleanup(env.Close)
	return env
}

func computeJSON(t *testing.T, env *Environment) string {
	t.Helper()
	data, err := env.ComputeData()
	require.NoError(t, err)
	raw, err := document.Encode(data, "")
	require.NoError(t, err)
	return string(raw)
}

func TestRunScript_RegistersPrototypes(t *testing.T) {
	testCases := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "array data",
			script: `prototypes["x"] = {class = "C", data = {1, 2, 3}}`,
			want:   `{"x":{"C":[1,2,3]}}`,
		},
		{
			name:   "object data",
			script: `prototypes["x"] = {class = "C", data = {a = 1, b = true}}`,
			want:   `{"x":{"C":{"a":1,"b":true}}}`,
		},
		{
			name: "several entries keep registration order",
			script: `
				prototypes.second = {class = "B", data = {}}
				prototypes.first = {class = "A", data = {n = 1.5}}`,
			want: `{"second":{"B":{}},"first":{"A":{"n":1.5}}}`,
		},
		{
			name: "reassignment overwrites in place",
			script: `
				prototypes.a = {class = "Old", data = {}}
				prototypes.b = {class = "B", data = {}}
				prototypes.a = {class = "New", data = {v = "s"}}`,
			want: `{"a":{"New":{"v":"s"}},"b":{"B":{}}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			env := newMapEnv(t, map[string]string{"protos/items.lua": tc.script})

			// --- Act ---
			err := env.RunScript(ctx, "items.lua")

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, computeJSON(t, env))
		})
	}
}

func TestRunScript_AcceptsNameWithoutExtension(t *testing.T) {
	ctx, logs := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/items.lua": `prototypes.x = {class = "C", data = {1}}`,
	})

	require.NoError(t, env.RunScript(ctx, "items"))
	assert.Equal(t, `{"x":{"C":[1]}}`, computeJSON(t, env))
	assert.Contains(t, logs.String(), "module=items")
}

func TestRunScript_ExecutesModuleOnce(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/counter.lua": `loads = (loads or 0) + 1`,
		"protos/main.lua":    `require("counter"); require("counter")`,
	})

	require.NoError(t, env.RunScript(ctx, "counter"))
	require.NoError(t, env.RunScript(ctx, "counter.lua"))
	require.NoError(t, env.RunScript(ctx, "main"))

	assert.Equal(t, lua.LNumber(1), env.L.GetGlobal("loads"))
}

func TestRunScript_DottedRequireUsesResolver(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/lib/shapes.lua": `return {square = {1, 1}}`,
		"protos/main.lua": `
			local shapes = require("lib.shapes")
			prototypes.sq = {class = "Shape", data = shapes.square}`,
	})

	require.NoError(t, env.RunScript(ctx, "main"))
	assert.Equal(t, `{"sq":{"Shape":[1,1]}}`, computeJSON(t, env))
}

func TestRunScript_MissingScript(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, nil)

	err := env.RunScript(ctx, "missing.lua")
	require.Error(t, err)

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "missing", scriptErr.Module)

	var notFound *searchpath.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, []string{"protos/missing.lua"}, notFound.Attempted)
	assert.Equal(t, "\n\tprotos/missing.lua", notFound.Diagnostic())
}

func TestRunScript_MissingDottedScriptKeepsRequestedName(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, nil)

	err := env.RunScript(ctx, "a.b")
	require.Error(t, err)

	var notFound *searchpath.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "a.b", notFound.Name)
	assert.Equal(t, []string{"protos/a/b.lua"}, notFound.Attempted)
	assert.Contains(t, err.Error(), "module 'a.b' not found")
}

func TestRunScript_MissingNestedRequireIsScriptVisible(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/main.lua": `
			local ok, msg = pcall(require, "absent.mod")
			caught = msg
			require("absent.mod")`,
	})

	err := env.RunScript(ctx, "main")
	require.Error(t, err)

	var notFound *searchpath.NotFoundError
	assert.False(t, errors.As(err, &notFound), "only a missing top-level script is a NotFoundError")
	assert.Contains(t, err.Error(), "protos/absent/mod.lua")

	caught := lua.LVAsString(env.L.GetGlobal("caught"))
	assert.Contains(t, caught, "\n\tprotos/absent/mod.lua")
}

func TestRunScript_ScriptErrors(t *testing.T) {
	testCases := []struct {
		name    string
		script  string
		wantMsg string
	}{
		{name: "syntax error", script: `prototypes.x = {`, wantMsg: "protos/bad.lua"},
		{name: "raised error", script: `error("boom")`, wantMsg: "boom"},
		{name: "undefined call", script: `undefined_function()`, wantMsg: "non-function"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			env := newMapEnv(t, map[string]string{"protos/bad.lua": tc.script})

			err := env.RunScript(ctx, "bad")
			require.Error(t, err)

			var scriptErr *ScriptError
			require.True(t, errors.As(err, &scriptErr))
			assert.Equal(t, "bad", scriptErr.Module)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestRunScript_HonorsContextDeadline(t *testing.T) {
	ctx, _ := testutil.Context(t)
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	env := newMapEnv(t, map[string]string{"protos/spin.lua": `while true do end`})

	err := env.RunScript(ctx, "spin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), context.DeadlineExceeded.Error())
}

func TestNew_InstallsBindings(t *testing.T) {
	type host struct{ Name string }
	h := &host{Name: "factory"}

	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/main.lua": `prototypes.p = {class = "C", data = {n = factor * 3, label = label, host = host}}`,
	}, WithContext(map[string]any{
		"factor": 2,
		"label":  "x",
		"host":   h,
	}))

	require.NoError(t, env.RunScript(ctx, "main"))
	data, err := env.ComputeData()
	require.NoError(t, err)

	entry, _ := data.Get("p")
	fields, _ := entry.(*document.Object).Get("C")
	obj := fields.(*document.Object)

	n, _ := obj.Get("n")
	assert.Equal(t, document.Int(6), n)
	label, _ := obj.Get("label")
	assert.Equal(t, document.String("x"), label)
	opaque, _ := obj.Get("host")
	require.Equal(t, document.KindOpaque, opaque.Kind())
	assert.Same(t, h, opaque.(document.Opaque).Value)
}

func TestNew_PrototypesBindingIsReplaced(t *testing.T) {
	env := New(WithContext(map[string]any{PrototypesGlobal: "shadowed"}))
	defer env.Close()

	_, ok := env.L.GetGlobal(PrototypesGlobal).(*lua.LTable)
	assert.True(t, ok)
}

func TestNew_BasePathSetsSingleTemplate(t *testing.T) {
	env := New(WithBasePath("some/dir/"))
	defer env.Close()

	path := env.L.GetField(env.L.GetGlobal("package"), "path")
	assert.Equal(t, lua.LString("some/dir/?.lua"), path)
}

func TestNew_WithoutBasePathKeepsDefaultPath(t *testing.T) {
	env := New()
	defer env.Close()

	path := lua.LVAsString(env.L.GetField(env.L.GetGlobal("package"), "path"))
	assert.NotEmpty(t, path)
	assert.True(t, strings.Contains(path, "?"))
}

func TestSearchpath_FromLua(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"y/a/b.lua": ``,
		"protos/main.lua": `
			hit = package.searchpath("a.b", "x/?.lua;y/?.lua")
			miss, diag = package.searchpath("a.b", "x/?.lua;z/?.lua")
			custom = package.searchpath("a_b", "y/?.lua", "_", "/")`,
	})

	require.NoError(t, env.RunScript(ctx, "main"))
	assert.Equal(t, lua.LString("y/a/b.lua"), env.L.GetGlobal("hit"))
	assert.Equal(t, lua.LNil, env.L.GetGlobal("miss"))
	assert.Equal(t, lua.LString("\n\tx/a/b.lua\n\tz/a/b.lua"), env.L.GetGlobal("diag"))
	assert.Equal(t, lua.LString("y/a/b.lua"), env.L.GetGlobal("custom"))
}

func TestRequire_FollowsReplacedSearchpath(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"elsewhere/real.lua": `redirected = true`,
		"protos/main.lua": `
			package.searchpath = function(name, path) return "elsewhere/real.lua" end
			require("anything")`,
	})

	require.NoError(t, env.RunScript(ctx, "main"))
	assert.Equal(t, lua.LTrue, env.L.GetGlobal("redirected"))
}

func TestComputeData_Failures(t *testing.T) {
	testCases := []struct {
		name   string
		script string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "function inside data",
			script: `prototypes.x = {class = "C", data = {a = {cb = print}}}`,
			check: func(t *testing.T, err error) {
				var convErr *ConversionError
				require.True(t, errors.As(err, &convErr))
				assert.Equal(t, "x.data.a.cb", convErr.Path)
				assert.Equal(t, "function", convErr.Type)
			},
		},
		{
			name:   "table key inside data",
			script: `local d = {}; d[{}] = 1; prototypes.x = {class = "C", data = d}`,
			check: func(t *testing.T, err error) {
				var convErr *ConversionError
				require.True(t, errors.As(err, &convErr))
				assert.Equal(t, "table key", convErr.Type)
			},
		},
		{
			name:   "missing class",
			script: `prototypes.x = {data = {}}`,
			check: func(t *testing.T, err error) {
				var entryErr *EntryError
				require.True(t, errors.As(err, &entryErr))
				assert.Equal(t, EntryError{Name: "x", Field: "class", Reason: "is missing"}, *entryErr)
			},
		},
		{
			name:   "class of the wrong type",
			script: `prototypes.x = {class = 5, data = {}}`,
			check: func(t *testing.T, err error) {
				var entryErr *EntryError
				require.True(t, errors.As(err, &entryErr))
				assert.Equal(t, "class", entryErr.Field)
				assert.Equal(t, "must be a string, got number", entryErr.Reason)
			},
		},
		{
			name:   "data is not a table",
			script: `prototypes.x = {class = "C", data = "nope"}`,
			check: func(t *testing.T, err error) {
				var entryErr *EntryError
				require.True(t, errors.As(err, &entryErr))
				assert.Equal(t, "data", entryErr.Field)
				assert.Equal(t, `prototype 'x': field 'data' must be a table, got string`, err.Error())
			},
		},
		{
			name:   "entry is not a table",
			script: `prototypes.ok = {class = "C", data = {}}; prototypes.x = 1`,
			check: func(t *testing.T, err error) {
				var entryErr *EntryError
				require.True(t, errors.As(err, &entryErr))
				assert.Equal(t, "x", entryErr.Name)
				assert.Empty(t, entryErr.Field)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			env := newMapEnv(t, map[string]string{"protos/main.lua": tc.script})
			require.NoError(t, env.RunScript(ctx, "main"))

			data, err := env.ComputeData()
			require.Error(t, err)
			assert.Nil(t, data)
			tc.check(t, err)
		})
	}
}

func TestComputeData_NumericEntryNames(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/main.lua": `prototypes[1] = {class = "C", data = {}}`,
	})
	require.NoError(t, env.RunScript(ctx, "main"))
	assert.Equal(t, `{"1":{"C":{}}}`, computeJSON(t, env))
}

func TestComputeData_InheritedFields(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{
		"protos/main.lua": `
			local base = {class = "C", data = {a = 1}}
			prototypes.x = setmetatable({}, {__index = base})
			prototypes.y = setmetatable({data = {b = true}}, {__index = base})`,
	})
	require.NoError(t, env.RunScript(ctx, "main"))
	assert.Equal(t, `{"x":{"C":{"a":1}},"y":{"C":{"b":true}}}`, computeJSON(t, env))
}

func TestComputeData_ReplacedPrototypesGlobal(t *testing.T) {
	ctx, _ := testutil.Context(t)
	env := newMapEnv(t, map[string]string{"protos/main.lua": `prototypes = "gone"`})
	require.NoError(t, env.RunScript(ctx, "main"))

	_, err := env.ComputeData()
	require.Error(t, err)
}

func TestEnvironments_AreIsolated(t *testing.T) {
	ctx, _ := testutil.Context(t)
	files := map[string]string{"protos/main.lua": `prototypes.x = {class = "C", data = {}}`}
	first := newMapEnv(t, files)
	second := newMapEnv(t, nil)

	require.NoError(t, first.RunScript(ctx, "main"))

	reg, err := second.Registry()
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
}
