package codec

import (
	"bytes"
	"sync"
)

// 编码缓冲池，减少 GC 压力
var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer 从池中取出 bytes.Buffer
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 归还 bytes.Buffer
// 缓冲区会被重置但保留容量；过大的缓冲区直接丢弃
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
