package sites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvest/internal/adapters/memory"
	"harvest/internal/domain"
)

func TestNormalizeDomainName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"EXAMPLE.COM", "example.com"},
		{"https://Example.com/path", "example.com"},
		{"http://example.com", "example.com"},
		{"example.com/deep/path?q=1", "example.com"},
		{"  example.com  ", "example.com"},
		{"sub.example.co.uk", "sub.example.co.uk"},
	}
	for _, c := range cases {
		got, err := NormalizeDomainName(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestNormalizeDomainNameRejectsInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"example",
		"exa mple.com",
		"example.c",
		".com",
		"http://",
		"example..com/",
		"ftp://example.com",
	} {
		_, err := NormalizeDomainName(in)
		assert.ErrorIs(t, err, ErrInvalidDomain, "input %q", in)
	}
}

type launchCall struct {
	domainID int64
	typ      domain.CollectorType
}

type stubDispatcher struct {
	store    *memory.Store
	launched []launchCall
}

func (d *stubDispatcher) LaunchNew(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error) {
	d.launched = append(d.launched, launchCall{domainID, typ})
	return domain.Collector{DomainID: domainID, Type: typ, Status: domain.StatusPending}, nil
}

func (d *stubDispatcher) Relaunch(context.Context, int64) error      { return nil }
func (d *stubDispatcher) ToggleEnabled(context.Context, int64) error { return nil }
func (d *stubDispatcher) RequestStop(context.Context, int64) error   { return nil }
func (d *stubDispatcher) List(context.Context) ([]domain.Collector, error) {
	return nil, nil
}

func setup(t *testing.T) (*memory.Store, *stubDispatcher, *Service) {
	t.Helper()
	store := memory.NewStore()
	dispatch := &stubDispatcher{store: store}
	return store, dispatch, New(store.Domains(), store.Collectors(), dispatch)
}

func TestRegisterNewDomainStartsBothCollectors(t *testing.T) {
	_, dispatch, svc := setup(t)
	ctx := context.Background()

	dom, created, err := svc.Register(ctx, "https://Example.com/contact")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "example.com", dom.Name)

	require.Len(t, dispatch.launched, 2)
	assert.Equal(t, launchCall{dom.ID, domain.TypeScraper}, dispatch.launched[0])
	assert.Equal(t, launchCall{dom.ID, domain.TypeWhois}, dispatch.launched[1])
}

func TestRegisterExistingDomainStartsNothing(t *testing.T) {
	_, dispatch, svc := setup(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "example.com")
	require.NoError(t, err)
	_, created, err := svc.Register(ctx, "http://example.com/other")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Len(t, dispatch.launched, 2, "second registration must not launch again")
}

func TestRegisterSkipsGloballyDisabledType(t *testing.T) {
	store, dispatch, svc := setup(t)
	ctx := context.Background()

	// One existing scraper collector, disabled: the type is switched off.
	dom, _, err := store.Domains().GetOrCreate(ctx, "other.com")
	require.NoError(t, err)
	col, err := store.Collectors().Create(ctx, dom.ID, domain.TypeScraper)
	require.NoError(t, err)
	require.NoError(t, store.Collectors().SetEnabled(ctx, col.ID, false))

	_, created, err := svc.Register(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, dispatch.launched, 1)
	assert.Equal(t, domain.TypeWhois, dispatch.launched[0].typ)
}

func TestRegisterInvalidInput(t *testing.T) {
	_, dispatch, svc := setup(t)

	_, _, err := svc.Register(context.Background(), "not a domain")
	assert.ErrorIs(t, err, ErrInvalidDomain)
	assert.Empty(t, dispatch.launched)
}
