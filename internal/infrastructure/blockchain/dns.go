package blockchain

import (
	"context"
	"fmt"
	"net"

	domainerrors "chain-gateway.backend/internal/domain/errors"
)

var resolveIPv4 = func(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip4", host)
}

// resolveHostIPv4 returns the first IPv4 address of host
func resolveHostIPv4(ctx context.Context, host string) (string, error) {
	if host == "" {
		return "", domainerrors.Validation("resolve ethereum host", "host is required")
	}
	ips, err := resolveIPv4(ctx, host)
	if err != nil {
		return "", domainerrors.Transport("resolve "+host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("%w for %s", domainerrors.ErrNoAddressResolved, host)
}
