package ldap

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/isometry/ssoadmin/internal/logging"
)

// Well-known LDAP ports.
const (
	DefaultLDAPPort  = 389
	DefaultLDAPSPort = 636
)

// srvResolver is the DNS lookup seam. *net.Resolver satisfies it.
type srvResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// SRVDiscovery locates directory endpoints through DNS SRV records.
type SRVDiscovery struct {
	resolver srvResolver
	log      logging.Logger
}

// NewSRVDiscovery creates a discovery helper using the default resolver.
func NewSRVDiscovery(log logging.Logger) *SRVDiscovery {
	return &SRVDiscovery{
		resolver: net.DefaultResolver,
		log:      logging.OrNop(log),
	}
}

// Discover resolves directory endpoints for a domain, preferring TLS
// endpoints (_ldaps._tcp) over plaintext ones (_ldap._tcp). Results are
// ordered by SRV priority and weight.
func (d *SRVDiscovery) Discover(ctx context.Context, domain string) ([]*ServerInfo, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain is required for SRV discovery")
	}

	secure := d.lookup(ctx, "ldaps", domain, true)
	sortServersByPriority(secure)
	plain := d.lookup(ctx, "ldap", domain, false)
	sortServersByPriority(plain)

	servers := append(secure, plain...)
	if len(servers) == 0 {
		return nil, fmt.Errorf("no SRV records found for domain %s", domain)
	}

	d.log.Debug("discovered directory servers", map[string]any{
		"domain": domain,
		"count":  len(servers),
	})
	return servers, nil
}

func (d *SRVDiscovery) lookup(ctx context.Context, service, domain string, useTLS bool) []*ServerInfo {
	_, records, err := d.resolver.LookupSRV(ctx, service, "tcp", domain)
	if err != nil {
		d.log.Debug("SRV lookup failed", map[string]any{
			"service": service,
			"domain":  domain,
			"error":   err.Error(),
		})
		return nil
	}

	servers := make([]*ServerInfo, 0, len(records))
	for _, rec := range records {
		host := strings.TrimSuffix(rec.Target, ".")
		if host == "" {
			continue
		}
		servers = append(servers, &ServerInfo{
			Host:     host,
			Port:     int(rec.Port),
			UseTLS:   useTLS,
			Priority: int(rec.Priority),
			Weight:   int(rec.Weight),
			Source:   "srv",
		})
	}
	return servers
}

// sortServersByPriority orders servers by ascending SRV priority, then
// descending weight within each priority band.
func sortServersByPriority(servers []*ServerInfo) {
	sort.SliceStable(servers, func(i, j int) bool {
		if servers[i].Priority != servers[j].Priority {
			return servers[i].Priority < servers[j].Priority
		}
		return servers[i].Weight > servers[j].Weight
	})
}

// ParseURL parses an ldap:// or ldaps:// endpoint into server info.
// Ports default to the scheme's well-known port when omitted.
func ParseURL(raw string) (*ServerInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid LDAP URL %q: %w", raw, err)
	}

	var useTLS bool
	var port int
	switch u.Scheme {
	case "ldap":
		useTLS = false
		port = DefaultLDAPPort
	case "ldaps":
		useTLS = true
		port = DefaultLDAPSPort
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host in LDAP URL %q", raw)
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port in LDAP URL %q", raw)
		}
	}

	return &ServerInfo{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
		Source: "config",
	}, nil
}

// ServerURL renders server info back into a dialable LDAP URL.
func ServerURL(info *ServerInfo) string {
	scheme := "ldap"
	if info.UseTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(info.Host, strconv.Itoa(info.Port)))
}

// fallbackServers builds direct endpoints for a bare hostname when
// discovery yields nothing.
func fallbackServers(host string, port int, useTLS bool) []*ServerInfo {
	return []*ServerInfo{{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
		Source: "fallback",
	}}
}
