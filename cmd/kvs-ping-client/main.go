// Command kvs-ping-client is the counterpart to kvs-ping-server: it
// reads "PING" or "PING <message>" lines from stdin, sends each as a
// ping request, and prints the server's response.
package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/rishiag/kvs/internal/protocol"
)

const serverAddr = "127.0.0.1:6380"

func main() {
	conn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		log.Fatalf("kvs-ping-client: dial: %v", err)
	}
	defer conn.Close()

	connReader := bufio.NewReader(conn)
	connWriter := bufio.NewWriter(conn)
	stdin := bufio.NewScanner(os.Stdin)

	for stdin.Scan() {
		line := strings.TrimSpace(stdin.Text())
		parts := strings.SplitN(line, " ", 2)
		if len(parts) == 0 || strings.ToUpper(parts[0]) != "PING" {
			continue
		}

		req := protocol.PingRequest{}
		if len(parts) == 2 {
			req.Msg = parts[1]
		}
		if err := protocol.WritePingRequest(connWriter, req); err != nil {
			log.Fatalf("kvs-ping-client: write: %v", err)
		}

		resp, err := protocol.ReadPingResponse(connReader)
		if err != nil {
			log.Fatalf("kvs-ping-client: read: %v", err)
		}

		switch resp.Kind {
		case protocol.Pong:
			fmt.Println("PONG")
		case protocol.Echo:
			fmt.Println(resp.Echo)
		}
	}
}
