// Package asyncfs contains the core domain types shared by the asynchronous
// filesystem engine: operation kinds, decoded outcomes, stat records,
// directory entries and the error taxonomy.
//
// The engine itself lives in the filesystem package; the event loop that
// runs blocking syscalls and delivers completions lives in eventloop.
package asyncfs
