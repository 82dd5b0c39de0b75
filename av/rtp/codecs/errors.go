package codecs

import "errors"

// ErrShortPacket indicates an empty payload handed to a depacketizer.
var ErrShortPacket = errors.New("packet is not large enough")
