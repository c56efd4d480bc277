// Package h1x is a small, explicit HTTP/1.1 client protocol engine.
//
// It turns a RequestSpec into exact wire bytes, reads a status line,
// header block and body back from an already-connected transport, and
// decides after each exchange whether the connection may be reused.
// The three legal HTTP/1.1 body framings are supported: Content-Length,
// chunked transfer coding, and close-delimited.
//
// h1x deliberately does not pool connections, follow redirects, retry,
// or negotiate compression. It is the protocol layer only; connection
// establishment and lifetime live behind the Transport interface.
//
// Quick start:
//
//	c := h1x.New()
//	if err := c.Connect("example.com", 80, nil); err != nil { log.Fatal(err) }
//	defer c.Close()
//	res, err := c.Request(h1x.RequestSpec{Path: "/"})
//	if err != nil { log.Fatal(err) }
//	fmt.Println(res.Status, string(res.Body))
package h1x
