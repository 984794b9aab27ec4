// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package luaenv is the scripting front end of the prototype loader.
//
// An Environment wraps one gopher-lua state. Host bindings are installed as
// globals, an empty `prototypes` table is created for scripts to fill, and
// module loading is routed through the searchpath package so that every
// `require` consults the configured fsutil.Finder instead of the file system.
//
// A typical script registers entries like this:
//
//	prototypes["iron-plate"] = {
//	    class = "com.example.Item",
//	    data  = { stack = 100, tags = { "metal", "plate" } },
//	}
//
// After the scripts have run, ComputeData walks the `prototypes` table and
// converts each entry's data with ToDocument. Tables whose keys start with a
// contiguous run 1..N become Arrays, everything else becomes an Object.
//
// An Environment is not safe for concurrent use. Run one per goroutine and
// merge the resulting registries afterwards.
package luaenv
