package exception

import "github.com/yanun0323/errors"

var (
	ErrEmptyAddress   = errors.New("channel: empty address")
	ErrChannelClosed  = errors.New("channel: connection closed")
	ErrFrameTooLarge  = errors.New("channel: frame length exceeds limit")
	ErrFrameMalformed = errors.New("channel: malformed frame payload")
)
