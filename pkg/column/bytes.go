package column

import "unsafe"

// Zero-copy views of value slices as raw bytes. The on-disk format is
// little-endian, matching the native layout on all supported targets
// (cross-endian portability is not a goal of the format).

func int32Bytes(v []int32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func float64Bytes(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*8)
}
