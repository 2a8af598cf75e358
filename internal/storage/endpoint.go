package storage

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// EndpointKind distinguishes remote servers from embedded databases
type EndpointKind string

const (
	EndpointRemote   EndpointKind = "remote"
	EndpointEmbedded EndpointKind = "embedded"
)

// Endpoint is a parsed connection string
type Endpoint struct {
	Kind EndpointKind
	Host string // Remote only
	Port int    // Remote only; zero selects the driver default
	Path string // Embedded only; directory holding the database files
}

// String renders the endpoint back into connection-string form
func (e Endpoint) String() string {
	if e.Kind == EndpointEmbedded {
		return "embedded:" + e.Path
	}
	if e.Port > 0 {
		return "remote:" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	}
	if strings.Contains(e.Host, ":") {
		return "remote:[" + e.Host + "]"
	}
	return "remote:" + e.Host
}

// ParseEndpoint parses "remote:<host>[:port]" or "embedded:<path>"
func ParseEndpoint(s string) (Endpoint, error) {
	switch {
	case strings.HasPrefix(s, "remote:"):
		return parseRemote(strings.TrimPrefix(s, "remote:"))
	case strings.HasPrefix(s, "embedded:"):
		path := strings.TrimPrefix(s, "embedded:")
		if path == "" {
			return Endpoint{}, fmt.Errorf("%w: embedded endpoint needs a path", ErrInvalidEndpoint)
		}
		return Endpoint{Kind: EndpointEmbedded, Path: path}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %q (only 'embedded' and 'remote' are supported)", ErrUnsupportedEndpoint, s)
	}
}

func parseRemote(hostport string) (Endpoint, error) {
	if hostport == "" {
		return Endpoint{}, fmt.Errorf("%w: remote endpoint needs a host", ErrInvalidEndpoint)
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given; a bracketed IPv6 literal loses its brackets
		host = strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
		if host == "" {
			return Endpoint{}, fmt.Errorf("%w: remote endpoint needs a host", ErrInvalidEndpoint)
		}
		return Endpoint{Kind: EndpointRemote, Host: host}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%w: invalid port %q", ErrInvalidEndpoint, portStr)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("%w: remote endpoint needs a host", ErrInvalidEndpoint)
	}
	return Endpoint{Kind: EndpointRemote, Host: host, Port: port}, nil
}
