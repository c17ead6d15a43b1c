package system

import (
	"bytes"
	"sync"
)

// maxPooledBuffer keeps one oversized archive from pinning memory in the pool.
const maxPooledBuffer = 64 << 20

// BufferPool reuses the in-memory buffers archives are assembled into, so a
// batch of exports does not reallocate a large buffer per show.
type BufferPool struct {
	pool sync.Pool
}

var globalPool = &BufferPool{
	pool: sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	},
}

// GetBuffer returns an empty buffer from the shared pool.
func GetBuffer() *bytes.Buffer {
	return globalPool.Get()
}

// PutBuffer returns buf to the shared pool.
func PutBuffer(buf *bytes.Buffer) {
	globalPool.Put(buf)
}

func (p *BufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}
