package protocol

import (
	"bufio"
	"fmt"
)

// PingRequest mirrors the original building-blocks demo: an optional
// message. An empty request asks for a bare PONG; a request carrying a
// message asks for that message echoed back.
type PingRequest struct {
	Msg string // empty means "no message"
}

// PingResponseKind distinguishes a bare PONG from an echoed message.
type PingResponseKind int

const (
	Pong PingResponseKind = iota
	Echo
)

// PingResponse is the server's reply to a PingRequest.
type PingResponse struct {
	Kind PingResponseKind
	Echo string // set when Kind == Echo
}

// WritePingRequest encodes req as a RESP array: ["PING"] or
// ["PING", msg].
func WritePingRequest(w *bufio.Writer, req PingRequest) error {
	if req.Msg == "" {
		if err := WriteArrayHeader(w, 1); err != nil {
			return err
		}
		if err := WriteBulkString(w, []byte("PING")); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := WriteArrayHeader(w, 2); err != nil {
		return err
	}
	if err := WriteBulkString(w, []byte("PING")); err != nil {
		return err
	}
	if err := WriteBulkString(w, []byte(req.Msg)); err != nil {
		return err
	}
	return w.Flush()
}

// ReadPingRequest decodes a PingRequest written by WritePingRequest.
func ReadPingRequest(r *bufio.Reader) (PingRequest, error) {
	v, err := ReadValue(r)
	if err != nil {
		return PingRequest{}, err
	}
	if v.Kind != Array || len(v.Array) == 0 {
		return PingRequest{}, fmt.Errorf("protocol: expected PING array, got %v", v.Kind)
	}
	if string(v.Array[0].Bulk) != "PING" {
		return PingRequest{}, fmt.Errorf("protocol: expected PING, got %q", v.Array[0].Bulk)
	}
	if len(v.Array) == 1 {
		return PingRequest{}, nil
	}
	return PingRequest{Msg: string(v.Array[1].Bulk)}, nil
}

// WritePingResponse encodes resp as a simple string "+PONG\r\n" or a
// bulk string carrying the echoed message.
func WritePingResponse(w *bufio.Writer, resp PingResponse) error {
	switch resp.Kind {
	case Pong:
		return WriteSimpleString(w, "PONG")
	case Echo:
		return WriteBulkString(w, []byte(resp.Echo))
	default:
		return fmt.Errorf("protocol: unknown response kind %d", resp.Kind)
	}
}

// ReadPingResponse decodes a PingResponse written by WritePingResponse.
func ReadPingResponse(r *bufio.Reader) (PingResponse, error) {
	v, err := ReadValue(r)
	if err != nil {
		return PingResponse{}, err
	}
	switch v.Kind {
	case SimpleString:
		if v.Str != "PONG" {
			return PingResponse{}, fmt.Errorf("protocol: unexpected simple string %q", v.Str)
		}
		return PingResponse{Kind: Pong}, nil
	case BulkString:
		return PingResponse{Kind: Echo, Echo: string(v.Bulk)}, nil
	default:
		return PingResponse{}, fmt.Errorf("protocol: unexpected response type %v", v.Kind)
	}
}
