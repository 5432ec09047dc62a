package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ParseTrustedProxies turns IPs and CIDR ranges into networks. Single IPs
// become /32 or /128 networks; unparsable entries are returned separately.
func ParseTrustedProxies(proxies []string) ([]*net.IPNet, []string) {
	var (
		nets    []*net.IPNet
		invalid []string
	)
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if _, ipNet, err := net.ParseCIDR(p); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		ip := net.ParseIP(p)
		if ip == nil {
			invalid = append(invalid, p)
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, invalid
}

// trustOptions trusts exactly the configured ranges. echo trusts loopback,
// link-local and private networks unless told otherwise.
func trustOptions(trusted []*net.IPNet) []echo.TrustOption {
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return opts
}

// IPExtractor is used as echo.Echo.IPExtractor, so c.RealIP() only honours
// proxy headers from trusted peers. X-Forwarded-For is walked from the
// nearest hop outwards and the first untrusted address wins, so a client
// cannot pick its own address by prepending hops. X-Real-IP is used when
// no X-Forwarded-For header is present.
func IPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	opts := trustOptions(trusted)
	fromXFF := echo.ExtractIPFromXFFHeader(opts...)
	fromRealIP := echo.ExtractIPFromRealIPHeader(opts...)
	return func(r *http.Request) string {
		if len(r.Header.Values(echo.HeaderXForwardedFor)) > 0 {
			return fromXFF(r)
		}
		return fromRealIP(r)
	}
}

// ClientIP returns the client address of r as seen through trusted proxies.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	return IPExtractor(trusted)(r)
}
