package channel

import (
	"github.com/yanun0323/errors"

	"tickpipe/pkg/exception"
)

// IsFrameError reports whether err is a per-frame decode failure that
// leaves the connection usable. Receive loops log these and keep
// reading instead of tearing the channel down.
func IsFrameError(err error) bool {
	return errors.Is(err, exception.ErrFrameTooLarge) ||
		errors.Is(err, exception.ErrFrameMalformed)
}

// IsClosed reports whether err means the underlying connection is
// gone and the channel cannot be used again.
func IsClosed(err error) bool {
	return errors.Is(err, exception.ErrChannelClosed)
}
