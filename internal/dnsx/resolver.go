package dnsx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// Lookup errors. NXDOMAIN and friends are normal states for a domain that is
// still being set up, so callers usually map them to "no records".
var (
	ErrNotFound = errors.New("dnsx: no such domain")
	ErrServFail = errors.New("dnsx: server failure")
	ErrRefused  = errors.New("dnsx: query refused")
)

// Lookuper is the raw DNS query surface. The production implementation talks
// to real nameservers; tests use MockLookuper.
type Lookuper interface {
	LookupMX(ctx context.Context, name string) ([]string, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// ClientConfig configures the DNS client.
type ClientConfig struct {
	// Nameservers to query, "host:port". Empty means the servers from
	// /etc/resolv.conf, falling back to public resolvers.
	Nameservers []string
	// Timeout for a single query. Default 5s.
	Timeout time.Duration
	// Retries for failed queries. Default 2.
	Retries int
}

// Client implements Lookuper on top of github.com/miekg/dns.
type Client struct {
	config ClientConfig
	client *mdns.Client
}

func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Retries == 0 {
		config.Retries = 2
	}
	if len(config.Nameservers) == 0 {
		config.Nameservers = systemNameservers()
	}

	return &Client{
		config: config,
		client: &mdns.Client{
			Timeout: config.Timeout,
		},
	}
}

func systemNameservers() []string {
	config, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(config.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}

	servers := make([]string, 0, len(config.Servers))
	for _, s := range config.Servers {
		if !strings.Contains(s, ":") {
			s = s + ":53"
		}
		servers = append(servers, s)
	}
	return servers
}

func ensureAbsolute(name string) string {
	if !strings.HasSuffix(name, ".") {
		return name + "."
	}
	return name
}

// query runs a DNS query against each nameserver with retries.
func (c *Client) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(ensureAbsolute(name), qtype)
	m.RecursionDesired = true

	var lastErr error

	for i := 0; i <= c.config.Retries; i++ {
		for _, server := range c.config.Nameservers {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			resp, _, err := c.client.ExchangeContext(ctx, m, server)
			if err != nil {
				lastErr = fmt.Errorf("dnsx: query failed: %w", err)
				continue
			}

			switch resp.Rcode {
			case mdns.RcodeSuccess:
				return resp, nil
			case mdns.RcodeNameError:
				return nil, ErrNotFound
			case mdns.RcodeServerFailure:
				lastErr = ErrServFail
				continue
			case mdns.RcodeRefused:
				lastErr = ErrRefused
				continue
			default:
				lastErr = fmt.Errorf("dnsx: unexpected rcode %d", resp.Rcode)
				continue
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrServFail
}

// LookupMX returns MX target hostnames ordered as answered.
func (c *Client) LookupMX(ctx context.Context, name string) ([]string, error) {
	resp, err := c.query(ctx, name, mdns.TypeMX)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			hosts = append(hosts, mx.Mx)
		}
	}

	if len(hosts) == 0 {
		return nil, ErrNotFound
	}
	return hosts, nil
}

// LookupTXT returns TXT records with character-string chunks concatenated,
// one string per record.
func (c *Client) LookupTXT(ctx context.Context, name string) ([]string, error) {
	resp, err := c.query(ctx, name, mdns.TypeTXT)
	if err != nil {
		return nil, err
	}

	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}
