package shm

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// The region lock is a single word inside the mapped header, so every
// attached process contends on the same memory. Critical sections are
// a scan over at most a few dozen entries, so a spin with Gosched is
// enough; there is no per-symbol granularity.

func (t *Table) lockWord() *uint32 {
	return (*uint32)(unsafe.Pointer(&t.data[offLock]))
}

func (t *Table) lock() {
	w := t.lockWord()
	for !atomic.CompareAndSwapUint32(w, 0, 1) {
		runtime.Gosched()
	}
}

func (t *Table) unlock() {
	atomic.StoreUint32(t.lockWord(), 0)
}
