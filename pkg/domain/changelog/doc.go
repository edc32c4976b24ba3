// Package changelog builds a Markdown changelog from the releases of one or
// more repositories.
//
// Releases are first collated into a single timeline (Collate), then rendered
// tag by tag, newest first (Renderer), and finally assembled with any content
// preserved from an existing changelog (Document). Reference-style links for
// each tag are collected in a LinkTable while rendering and written at the end
// of the document.
package changelog
