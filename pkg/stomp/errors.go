package stomp

import "errors"

var (
	ErrNotConnected      = errors.New("stomp: not connected")
	ErrHandshakeFailed   = errors.New("stomp: handshake failed")
	ErrHandshakeTimeout  = errors.New("stomp: handshake timed out")
	ErrServerError       = errors.New("stomp: server sent ERROR frame")
	ErrHeartbeatTimeout  = errors.New("stomp: heartbeat timeout")
	ErrEmptyTopic        = errors.New("stomp: empty topic")
	ErrEmptyDestination  = errors.New("stomp: empty destination")
	ErrNilHandler        = errors.New("stomp: nil handler")
	ErrInvalidHeaderPair = errors.New("stomp: headers must be key/value pairs")
)
