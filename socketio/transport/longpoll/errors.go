package longpoll

import "errors"

var errNotConnected = errors.New("longpoll transport: not connected")
