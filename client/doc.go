// Package client talks to a bitcask server over TCP.
//
// Example:
//
//	c, err := client.Connect(client.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	err = c.Set([]byte("foo"), []byte("bar"))
//	val, err := c.Get([]byte("foo"))
//	rows, err := c.Prefix([]byte("fo"))
package client
