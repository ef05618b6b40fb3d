// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// infoWithToken matches "<jwt>:<addr>".
var infoWithToken = regexp.MustCompile(`^[a-zA-Z0-9\-_]+?\.[a-zA-Z0-9\-_]+?\.([a-zA-Z0-9\-_]+)?:.+$`)

// APIInfo is a node address with an optional API token, as found in
// FULLNODE_API_INFO ("TOKEN:/ip4/127.0.0.1/tcp/1234/http").
type APIInfo struct {
	Addr  string
	Token string
}

// ParseAPIInfo splits s into token and address. Strings without a JWT
// prefix are taken as a bare address.
func ParseAPIInfo(s string) APIInfo {
	s = strings.TrimSpace(s)
	if infoWithToken.MatchString(s) {
		sp := strings.SplitN(s, ":", 2)
		return APIInfo{Token: sp[0], Addr: sp[1]}
	}
	return APIInfo{Addr: s}
}

// Endpoint renders the address as a connector endpoint. Multiaddrs become
// scheme://host:port/rpc/<version>; URLs are used as given with
// /rpc/<version> appended when they have no path.
func (a APIInfo) Endpoint(scheme, version string) (string, error) {
	if a.Addr == "" {
		return "", fmt.Errorf("api info has no address")
	}
	if strings.HasPrefix(a.Addr, "/") {
		m, err := ma.NewMultiaddr(a.Addr)
		if err != nil {
			return "", fmt.Errorf("parse multiaddr %q: %w", a.Addr, err)
		}
		_, addr, err := manet.DialArgs(m)
		if err != nil {
			return "", fmt.Errorf("dial args for %q: %w", a.Addr, err)
		}
		return scheme + "://" + addr + "/rpc/" + version, nil
	}

	u, err := url.Parse(a.Addr)
	if err != nil {
		return "", fmt.Errorf("parse address %q: %w", a.Addr, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/rpc/" + version
	}
	return u.String(), nil
}
