package socketio

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gosio09/sio09/debug"
)

type handshakeResult struct {
	sessionID        string
	heartbeatTimeout time.Duration
	closingTimeout   time.Duration
	transports       []string
}

// doHandshake performs the synchronous HTTP GET to
// "<origin>/socket.io/1/" described in spec.md §4.2/§6, honoring the
// configured timeout and the process-wide TLS slot when the origin
// scheme is secure.
func (c *Connection) doHandshake() (*handshakeResult, error) {
	url := handshakeURL(c.origin)

	ctx, cancel := context.WithTimeout(context.Background(), c.config.HandshakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for k, v := range c.headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	c.mu.Unlock()

	client := c.handshakeClient()

	debug.Printf("connection: handshake GET %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("handshake returned status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("handshake response body was empty")
	}
	line := scanner.Text()

	fields := strings.SplitN(line, ":", 4)
	if len(fields) != 4 {
		return nil, fmt.Errorf("malformed handshake line: %q", line)
	}

	heartbeatSec, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("malformed heartbeat timeout in handshake line: %q", line)
	}
	closeSec, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("malformed close timeout in handshake line: %q", line)
	}

	var transports []string
	for _, t := range strings.Split(fields[3], ",") {
		if t != "" {
			transports = append(transports, t)
		}
	}

	return &handshakeResult{
		sessionID:        fields[0],
		heartbeatTimeout: time.Duration(heartbeatSec) * time.Second,
		closingTimeout:   time.Duration(closeSec) * time.Second,
		transports:       transports,
	}, nil
}

func (c *Connection) handshakeClient() *http.Client {
	base := c.config.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	if !isSecureOrigin(c.origin) {
		return base
	}
	tlsCfg := TLSConfig()
	if tlsCfg == nil {
		return base
	}
	client := *base
	client.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	return &client
}

func isSecureOrigin(origin string) bool {
	return strings.HasPrefix(origin, "https://") || strings.HasPrefix(origin, "wss://")
}

// handshakeURL maps a ws(s):// origin to its http(s):// handshake
// equivalent; http(s):// origins pass through unchanged.
func handshakeURL(origin string) string {
	u := origin
	switch {
	case strings.HasPrefix(u, "wss://"):
		u = "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		u = "http://" + strings.TrimPrefix(u, "ws://")
	}
	return strings.TrimRight(u, "/") + "/socket.io/1/"
}
