// Package hash provides the CRC32-Castagnoli checksum used to protect
// persisted codebooks.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Streaming, while writing:
//
//	cw := hash.NewWriter(w)
//	cw.Write(header)
//	cw.Write(payload)
//	sum := cw.Sum32()
//
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when available.
package hash
