package stomp

import (
	"strconv"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
)

func heartbeatHeader(d time.Duration) string {
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	return ms + "," + ms
}

// negotiate applies the STOMP 1.2 heart-beat rules. client is the interval
// proposed in both directions; header is the server's "sx,sy" value.
// A zero result disables that direction.
func negotiate(client time.Duration, header string) (send, receive time.Duration, err error) {
	if header == "" || client == 0 {
		return 0, 0, nil
	}
	sx, sy, err := frame.ParseHeartBeat(header)
	if err != nil {
		return 0, 0, err
	}
	if sy > 0 {
		send = max(client, sy)
	}
	if sx > 0 {
		receive = max(client, sx)
	}
	return send, receive, nil
}
