package stream

import (
	"math/bits"
	"sync"
)

// Size-tiered buffer pools for the fixed-size buffers used by stream
// adapters: 512 (decode lookahead), 2048 (copy scratch), 4096 (encode
// pending buffer).
var bufferPools = [3]sync.Pool{
	{New: func() any { return make([]byte, 512) }},  // Lookahead
	{New: func() any { return make([]byte, 2048) }}, // Copy scratch
	{New: func() any { return make([]byte, 4096) }}, // Pending writes
}

// bufferSizes maps pool index to capacity.
var bufferSizes = [3]int{512, 2048, 4096}

// poolIndex returns the pool index for a given size.
func poolIndex(size int) int {
	if size <= 512 {
		return 0
	}
	if size <= 2048 {
		return 1
	}
	if size <= 4096 {
		return 2
	}
	return -1 // Too large for pooling
}

// GetBuffer gets a buffer of exactly size bytes, backed by the smallest
// pool class that can hold it. The contents are not cleared.
// Sizes above 4KB are allocated directly.
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	idx := poolIndex(size)
	if idx < 0 {
		return make([]byte, size)
	}
	buf := bufferPools[idx].Get().([]byte)
	return buf[:size]
}

// PutBuffer returns a buffer obtained from GetBuffer to its pool.
// Buffers whose capacity does not match a size class are dropped.
func PutBuffer(buf []byte) {
	c := cap(buf)
	for i, size := range bufferSizes {
		if c == size {
			bufferPools[i].Put(buf[:c])
			return
		}
	}
}

// OptimalBufferSize returns the pooled size class for a given data size.
// Sizes above the largest class round up to the next power of 2.
func OptimalBufferSize(dataSize int) int {
	if dataSize <= 0 {
		return bufferSizes[0]
	}
	for _, size := range bufferSizes {
		if dataSize <= size {
			return size
		}
	}
	return 1 << bits.Len(uint(dataSize-1))
}
