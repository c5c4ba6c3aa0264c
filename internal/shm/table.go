// Package shm implements the shared price table: a fixed set of
// symbol/price entries living in a named shared memory region, written
// by one process and read by others under a single cross-process lock.
package shm

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/yanun0323/errors"
	"golang.org/x/sys/unix"

	"tickpipe/internal/schema"
	"tickpipe/pkg/exception"
)

const (
	regionMagic = 0x54505431 // "TPT1"

	headerSize = 16
	symbolSize = schema.MaxSymbolLen
	entrySize  = symbolSize + 8

	offMagic = 0
	offCount = 4
	offLock  = 8
)

const shmDir = "/dev/shm/"

// Table is a handle to the shared region. The handle that created the
// region owns its destruction; attached handles may only detach.
type Table struct {
	name      string
	data      []byte
	count     int
	creator   bool
	destroyed bool
}

// Create allocates and initializes a named region holding one entry
// per registry symbol, every price set to the uninitialized sentinel.
func Create(name string, reg *schema.Registry) (*Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	size := headerSize + reg.Count()*entrySize
	fd, err := unix.Open(shmDir+name, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		if err == unix.EEXIST {
			return nil, errors.Wrap(exception.ErrRegionExists, name)
		}
		return nil, errors.Wrap(err, "open region")
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Unlink(shmDir + name)
		return nil, errors.Wrap(err, "size region")
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Unlink(shmDir + name)
		return nil, errors.Wrap(err, "map region")
	}

	binary.LittleEndian.PutUint32(data[offMagic:], regionMagic)
	binary.LittleEndian.PutUint32(data[offCount:], uint32(reg.Count()))
	for i := 0; i < reg.Count(); i++ {
		symbol, _ := reg.At(i)
		off := headerSize + i*entrySize
		copy(data[off:off+symbolSize], symbol)
	}

	return &Table{name: name, data: data, count: reg.Count(), creator: true}, nil
}

// Attach maps an existing named region read/write.
func Attach(name string) (*Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	fd, err := unix.Open(shmDir+name, unix.O_RDWR, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, errors.Wrap(exception.ErrRegionNotFound, name)
		}
		return nil, errors.Wrap(err, "open region")
	}
	defer unix.Close(fd)

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, errors.Wrap(err, "stat region")
	}
	size := int(stat.Size)
	if size < headerSize {
		return nil, errors.Wrap(exception.ErrRegionCorrupt, "region smaller than header")
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "map region")
	}
	if binary.LittleEndian.Uint32(data[offMagic:]) != regionMagic {
		unix.Munmap(data)
		return nil, errors.Wrap(exception.ErrRegionCorrupt, "bad magic")
	}
	count := int(binary.LittleEndian.Uint32(data[offCount:]))
	if size != headerSize+count*entrySize {
		unix.Munmap(data)
		return nil, errors.Wrap(exception.ErrRegionCorrupt, "size does not match entry count")
	}

	return &Table{name: name, data: data, count: count}, nil
}

// SetPrice writes the price for a symbol already present in the fixed
// set. The table never grows.
func (t *Table) SetPrice(symbol string, price float64) error {
	if t == nil || t.data == nil {
		return exception.ErrRegionNotFound
	}
	t.lock()
	defer t.unlock()
	off, ok := t.find(symbol)
	if !ok {
		return errors.Wrap(exception.ErrUnknownSymbol, symbol)
	}
	binary.LittleEndian.PutUint64(t.data[off+symbolSize:], math.Float64bits(price))
	return nil
}

// Price reads the current price for a symbol. The sentinel 0.0 means
// no price has been written yet; it is never a real quote.
func (t *Table) Price(symbol string) (float64, error) {
	if t == nil || t.data == nil {
		return 0, exception.ErrRegionNotFound
	}
	t.lock()
	defer t.unlock()
	off, ok := t.find(symbol)
	if !ok {
		return 0, errors.Wrap(exception.ErrUnknownSymbol, symbol)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(t.data[off+symbolSize:])), nil
}

// Snapshot copies every entry out under one lock acquisition. Entries
// holding the sentinel are included as-is. The snapshot is consistent
// per symbol only; the lock gives no cross-read ordering beyond it.
func (t *Table) Snapshot() (map[string]float64, error) {
	if t == nil || t.data == nil {
		return nil, exception.ErrRegionNotFound
	}
	out := make(map[string]float64, t.count)
	t.lock()
	defer t.unlock()
	for i := 0; i < t.count; i++ {
		off := headerSize + i*entrySize
		symbol := trimSymbol(t.data[off : off+symbolSize])
		out[symbol] = math.Float64frombits(binary.LittleEndian.Uint64(t.data[off+symbolSize:]))
	}
	return out, nil
}

// Symbols lists the symbols stored in the region, in table order.
func (t *Table) Symbols() []string {
	if t == nil || t.data == nil {
		return nil
	}
	out := make([]string, 0, t.count)
	for i := 0; i < t.count; i++ {
		off := headerSize + i*entrySize
		out = append(out, trimSymbol(t.data[off:off+symbolSize]))
	}
	return out
}

// Detach unmaps the region without removing it. Safe to call twice.
func (t *Table) Detach() error {
	if t == nil || t.data == nil {
		return nil
	}
	data := t.data
	t.data = nil
	if err := unix.Munmap(data); err != nil {
		return errors.Wrap(err, "unmap region")
	}
	return nil
}

// Destroy unmaps the region and removes it from the OS namespace.
// Only the creating handle may destroy; calling twice is a no-op so
// shutdown paths can race harmlessly.
func (t *Table) Destroy() error {
	if t == nil {
		return nil
	}
	if !t.creator {
		return exception.ErrNotCreator
	}
	if t.destroyed {
		return nil
	}
	t.destroyed = true
	if err := t.Detach(); err != nil {
		return err
	}
	if err := unix.Unlink(shmDir + t.name); err != nil && err != unix.ENOENT {
		return errors.Wrap(err, "unlink region")
	}
	return nil
}

// find linear-scans the entries for a symbol slot. Callers hold the
// lock.
func (t *Table) find(symbol string) (int, bool) {
	for i := 0; i < t.count; i++ {
		off := headerSize + i*entrySize
		if trimSymbol(t.data[off:off+symbolSize]) == symbol {
			return off, true
		}
	}
	return 0, false
}

func trimSymbol(raw []byte) string {
	return strings.TrimRight(string(raw), "\x00")
}

func validateName(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return errors.New("invalid region name: " + name)
	}
	return nil
}
