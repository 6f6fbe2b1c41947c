// Package template defines the contract shared by the template language
// engines in its sub packages: gotemplate (pongo2) and htmltemplate
// (html/template).
package template
