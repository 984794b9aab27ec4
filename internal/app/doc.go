// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the load lifecycle: run the Lua bundles,
// decode the HCL definitions on top, and print the merged prototype document.
// It is decoupled from any specific entrypoint like a CLI.
package app
