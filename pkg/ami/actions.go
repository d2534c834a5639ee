package ami

import "context"

// Typed wrappers over [Client.Send] for commonly used manager actions.
// These carry no logic of their own: each builds the action fields and
// passes the response through.

// Logoff asks the server to end the session. The server closes the
// connection afterwards, which tears the session down as usual.
func (c *Client) Logoff(ctx context.Context) error {
	_, err := c.Send(ctx, NewAction("Logoff"))
	return err
}

// Command executes a console command on the server.
func (c *Client) Command(ctx context.Context, command string) (*Response, error) {
	return c.Send(ctx, NewAction("Command", Field{Name: "Command", Value: command}))
}

// CoreStatus retrieves core status variables from the server.
func (c *Client) CoreStatus(ctx context.Context) (*Response, error) {
	return c.Send(ctx, NewAction("CoreStatus"))
}

// GetDBEntry retrieves a value from the server's internal database.
func (c *Client) GetDBEntry(ctx context.Context, family, key string) (*Response, error) {
	return c.Send(ctx, NewAction("DBGet",
		Field{Name: "Family", Value: family},
		Field{Name: "Key", Value: key},
	))
}

// PutDBEntry stores a value in the server's internal database.
func (c *Client) PutDBEntry(ctx context.Context, family, key, value string) (*Response, error) {
	return c.Send(ctx, NewAction("DBPut",
		Field{Name: "Family", Value: family},
		Field{Name: "Key", Value: key},
		Field{Name: "Val", Value: value},
	))
}

// DeleteDBEntry removes a value from the server's internal database.
func (c *Client) DeleteDBEntry(ctx context.Context, family, key string) (*Response, error) {
	return c.Send(ctx, NewAction("DBDel",
		Field{Name: "Family", Value: family},
		Field{Name: "Key", Value: key},
	))
}

// ListCommands lists the actions available on the server.
func (c *Client) ListCommands(ctx context.Context) (*Response, error) {
	return c.Send(ctx, NewAction("ListCommands"))
}

// ListPeers lists the SIP peers known to the server. This is a list action:
// the result's Items holds one packet per peer.
func (c *Client) ListPeers(ctx context.Context) (*Response, error) {
	return c.Send(ctx, NewAction("SIPpeers"))
}
