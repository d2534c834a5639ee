package ami

import (
	"errors"
	"time"
)

// SetOption takes one or more option function and applies them in order to
// the Client.
func (c *Client) SetOption(options ...func(*Client) error) error {
	for _, opt := range options {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// SetAddress sets the host and port of the manager interface to connect to.
// It defaults to 127.0.0.1:5038.
func SetAddress(host string, port uint16) func(*Client) error {
	return func(c *Client) error {
		if host == "" {
			return errors.New("host must not be empty")
		}
		c.host = host
		c.port = port
		return nil
	}
}

// SetCredentials sets the username and secret used by [Client.Login] and by
// the implicit login performed for actions sent while unauthenticated.
func SetCredentials(username, secret string) func(*Client) error {
	return func(c *Client) error {
		c.username = username
		c.secret = secret
		return nil
	}
}

// SetLogger sets the logger for the Client.
func SetLogger(lgr Logger) func(*Client) error {
	return func(c *Client) error {
		c.logger = lgr
		return nil
	}
}

// SetAutoReconnect controls whether a lost connection is automatically
// re-established (with bounded exponential backoff). Authentication is never
// re-attempted automatically. Enabled by default.
func SetAutoReconnect(enabled bool) func(*Client) error {
	return func(c *Client) error {
		c.autoReconnect = enabled
		return nil
	}
}

// SetKeepAlive controls whether periodic Ping actions are sent while
// authenticated, at the interval set by [SetKeepAliveInterval]. Enabled by
// default.
func SetKeepAlive(enabled bool) func(*Client) error {
	return func(c *Client) error {
		c.keepAlive = enabled
		return nil
	}
}

// SetKeepAliveInterval sets the interval between keepalive pings.
// It defaults to 30 seconds.
func SetKeepAliveInterval(i time.Duration) func(*Client) error {
	return func(c *Client) error {
		if i <= 0 {
			return errors.New("keepalive interval must be positive")
		}
		c.keepAliveInterval = i
		return nil
	}
}

// SetDecodeInterval sets the period of the decode schedule that turns
// buffered bytes into packets. Arrival and processing are decoupled: added
// latency is bounded by one interval. It defaults to 500 milliseconds.
func SetDecodeInterval(i time.Duration) func(*Client) error {
	return func(c *Client) error {
		if i <= 0 {
			return errors.New("decode interval must be positive")
		}
		c.decodeInterval = i
		return nil
	}
}

// SetConnectTimeout sets the timeout for establishing the TCP connection.
// It defaults to 10 seconds.
func SetConnectTimeout(d time.Duration) func(*Client) error {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("connect timeout must be positive")
		}
		c.connectTimeout = d
		return nil
	}
}

// SetWriteTimeout sets the timeout for writing an action on the TCP socket.
// Actions are typically short (a few hundred bytes), so the default is small
// (one second).
func SetWriteTimeout(d time.Duration) func(*Client) error {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("write timeout must be positive")
		}
		c.writeTimeout = d
		return nil
	}
}
