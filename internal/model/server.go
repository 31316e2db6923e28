package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener a server accepts connections on.
type SecurityLayer interface {
	Listen(network, addr string) (net.Listener, error)
}

// Server is a long running network endpoint (HTTP API or gRPC ops).
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
	Name() string
}
