package realtime

import "errors"

var ErrUnknownNotification = errors.New("realtime: unknown notification")
