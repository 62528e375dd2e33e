// Package mmap maps files read-only into memory.
//
//	m, err := mmap.Open("centroids.kfcb")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// On unix the file is mapped with mmap(2) through golang.org/x/sys/unix.
// Elsewhere the file is read into memory and the API behaves the same.
//
// Bytes must not be used after Close.
package mmap
