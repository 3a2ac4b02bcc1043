package websocket

import "errors"

var errNotConnected = errors.New("websocket transport: not connected")
