// Package diff parses unified diff text and maps ranges across file
// revisions.
//
// Parse understands the hunk format produced by git and by the Unified
// renderer in this package, at any context width. Transformer consumes a
// parsed diff and relocates 1-indexed, UTF-16 column ranges from the
// original file's coordinates to the modified file's, accumulating line
// offsets across hunks and following lines that were rewritten in place.
package diff
