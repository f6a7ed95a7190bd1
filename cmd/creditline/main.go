// Package main provides the entry point for the creditline CLI.
//
// creditline overlays copyright and attribution labels onto the images of
// HTML pages, either by rewriting files or by serving a directory with the
// labels injected on the fly.
//
// Usage:
//
//	creditline annotate page.html
//	creditline annotate --output-dir out/ site/*.html
//	creditline serve --root site/
//
// See --help for all available options.
package main

// main is the entry point for creditline.
func main() {
	Execute()
}
