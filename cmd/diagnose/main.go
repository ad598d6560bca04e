// Package main provides the diagnose CLI.
//
// diagnose sends an MRI image to the classification service, waits for the
// result and prints the derived report together with the overlay boxes
// mapped to a viewport.
//
// Usage:
//
//	diagnose run <image> [--endpoint URL] [--viewport WxH] [--output human|json|yaml]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
