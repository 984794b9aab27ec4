// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package definition is the grammar-based front end of the prototype loader.
//
// Definitions are written in HCL. A file holds any number of prototype
// blocks:
//
//	prototype "iron-plate" {
//	  class = "com.example.Item"
//	  data = {
//	    stack = 100
//	    tags  = ["metal", "plate"]
//	  }
//	}
//
// The data expression may reference `var.<name>` bindings and the
// prototypes defined before it as `prototypes.<name>.class` and
// `prototypes.<name>.data`, and may call a small set of functions such as
// merge, concat and format.
//
// Parsing is fail-fast: the first error diagnostic aborts the whole file and
// no partial result is returned.
package definition
