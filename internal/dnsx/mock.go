package dnsx

import (
	"context"
	"slices"
)

// MockLookuper is a Lookuper for tests. Keys are plain domain names without
// the trailing dot. Names listed in Fail return a server failure.
type MockLookuper struct {
	MX   map[string][]string
	TXT  map[string][]string
	Fail []string
}

var _ Lookuper = MockLookuper{}

func (m MockLookuper) LookupMX(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if slices.Contains(m.Fail, "mx "+name) {
		return nil, ErrServFail
	}
	hosts, ok := m.MX[name]
	if !ok || len(hosts) == 0 {
		return nil, ErrNotFound
	}
	return hosts, nil
}

func (m MockLookuper) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if slices.Contains(m.Fail, "txt "+name) {
		return nil, ErrServFail
	}
	records, ok := m.TXT[name]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}
