// Command kvs-ping-server demonstrates the ancillary RESP-like ping
// protocol: it answers every PING with PONG, or echoes back whatever
// message accompanied the PING. It has no connection to the storage
// engine or kvs.log.
package main

import (
	"bufio"
	"log"
	"net"

	"github.com/rishiag/kvs/internal/protocol"
)

const listenAddr = "127.0.0.1:6380"

func main() {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalf("kvs-ping-server: listen: %v", err)
	}
	log.Printf("kvs-ping-server: listening on %s", listenAddr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("kvs-ping-server: accept: %v", err)
			continue
		}
		go handleConn(conn)
	}
}

func handleConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	for {
		req, err := protocol.ReadPingRequest(r)
		if err != nil {
			return
		}

		resp := protocol.PingResponse{Kind: protocol.Pong}
		if req.Msg != "" {
			resp = protocol.PingResponse{Kind: protocol.Echo, Echo: req.Msg}
		}

		if err := protocol.WritePingResponse(w, resp); err != nil {
			return
		}
	}
}
