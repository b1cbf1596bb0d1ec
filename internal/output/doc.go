// Package output writes rendered diagram bytes to their destination.
//
// [FileWriter] replaces the target file (creating parent directories) and
// [StdoutWriter] streams to a terminal or pipe, both behind the [Writer]
// interface so the render command can treat "-o -" and "-o file" alike.
package output
