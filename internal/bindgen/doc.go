// Package bindgen expands a validated manifest into native declarations and
// wrapper fragments for one target language.
//
// A run has four steps. Validate reports manifest problems as diagnostics.
// Expand walks types and entry points in manifest order: each type is
// classified, named by the target and registered in a Resolver, then its
// declarations are built as Decl values and rendered by the target together
// with its wrapper. Entry points are expanded last, reading the resolver.
// Assemble hands the ordered fragments to the target, which lays them out
// into artifacts. WriteArtifacts puts them on disk.
package bindgen
