package exception

import "github.com/yanun0323/errors"

var (
	ErrRegionExists   = errors.New("shm: region name already in use")
	ErrRegionNotFound = errors.New("shm: region not found")
	ErrRegionCorrupt  = errors.New("shm: region layout mismatch")
	ErrUnknownSymbol  = errors.New("shm: unknown symbol")
	ErrNotCreator     = errors.New("shm: destroy requires the creating handle")
)
