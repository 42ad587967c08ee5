package httpaction

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
)

const (
	defaultDialTimeout    = 5 * time.Second
	defaultKeepAlive      = 30 * time.Second
	defaultIdleConns      = 16
	defaultIdleTimeout    = 90 * time.Second
	dnsRefreshInterval    = 5 * time.Minute
	defaultRequestTimeout = 5 * time.Second
)

// dnsResolver is shared by every transport with DNS caching enabled.
var dnsResolver = &dnscache.Resolver{} //nolint:gochecknoglobals

// newTransport returns a pooled transport. With cacheDNS the robot's action
// hosts are resolved once and then served from the cache.
func newTransport(cacheDNS bool) *http.Transport {
	trans := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultIdleConns,
		MaxIdleConnsPerHost: defaultIdleConns,
		IdleConnTimeout:     defaultIdleTimeout,
	}

	dialer := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: defaultKeepAlive,
	}

	if !cacheDNS {
		trans.DialContext = dialer.DialContext

		return trans
	}

	trans.DialContext = func(ctx context.Context, network string, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		ips, err := dnsResolver.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}

		var conn net.Conn

		for _, ip := range ips {
			conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
		}

		return nil, err
	}

	return trans
}

// RefreshDNS keeps cached host entries fresh until ctx is done.
func RefreshDNS(ctx context.Context) {
	ticker := time.NewTicker(dnsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dnsResolver.Refresh(true)
		}
	}
}
