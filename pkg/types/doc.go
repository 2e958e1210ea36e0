// Package types defines the product model entities (configured types,
// configuration types, properties, categories and property references),
// the collaborator interfaces consumed by the resolution engine, and the
// standard error values shared by every package.
package types
