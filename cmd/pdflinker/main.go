// Package main provides the entry point for the pdflinker CLI.
//
// pdflinker scans a textbook PDF for numbered problems and their solutions
// and writes a copy in which each problem links to its solution and back.
//
// Usage:
//
//	pdflinker link textbook.pdf -o linked_textbook.pdf
//	pdflinker serve --addr 127.0.0.1:8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
