// Package templates renders the admin pages as templ components. The
// *_templ.go files are generated from the .templ sources next to them.
package templates

//go:generate templ generate
