package util

import "net"

// IsAddrAvailable checks whether a listen address can currently be bound.
// Used as a preflight so serve fails with a clear message instead of a
// mid-start bind error.
func IsAddrAvailable(addr string) bool {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
