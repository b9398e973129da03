package filters

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLinkRegistrar struct {
	urls []string
	fail bool
}

func (r *stubLinkRegistrar) Register(ctx context.Context, deliveryID uint64, url string) error {
	if r.fail {
		return errors.New("db error")
	}
	r.urls = append(r.urls, url)
	return nil
}

func newClickFilter(registrar *stubLinkRegistrar) *AddClickTracking {
	return NewAddClickTracking(enabledConfig(), testCodec(), registrar, getLogger())
}

func TestAddClickTracking_RewritesAnchors(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	filter := newClickFilter(registrar)
	codec := testCodec()

	output := filter.FilterHTML(context.Background(), `<p><a href="http://example.com/page">Read more</a></p>`)

	assert.NotContains(t, output, `href="http://example.com/page"`)
	assert.Contains(t, output, "/t/click/2/"+codec.HashID(2))
	assert.Contains(t, output, "url=http%3A%2F%2Fexample.com%2Fpage")
	assert.Equal(t, []string{"http://example.com/page"}, registrar.urls)
}

func TestAddClickTracking_OneLinkPerDistinctURL(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	filter := newClickFilter(registrar)

	input := `<a href="http://example.com/a">one</a>` +
		`<a href="http://example.com/a">same</a>` +
		`<a href="http://example.com/b">other</a>`
	output := filter.FilterHTML(context.Background(), input)

	assert.Equal(t, []string{"http://example.com/a", "http://example.com/b"}, registrar.urls)
	assert.Equal(t, 3, strings.Count(output, "/t/click/"))
}

func TestAddClickTracking_SkipsNonHTTPSchemes(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	filter := newClickFilter(registrar)

	input := `<a href="mailto:hello@example.com">mail</a>` +
		`<a href="ftp://example.com/file">ftp</a>` +
		`<a href="#section">anchor</a>` +
		`<a href="/relative/path">relative</a>`
	output := filter.FilterHTML(context.Background(), input)

	assert.Empty(t, registrar.urls)
	assert.Contains(t, output, `href="mailto:hello@example.com"`)
	assert.Contains(t, output, `href="#section"`)
	assert.Contains(t, output, `href="/relative/path"`)
}

func TestAddClickTracking_SkipsOwnTrackingHost(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	filter := newClickFilter(registrar)

	input := `<a href="https://cuttlefish.io/t/open/1/abc.gif">pixel</a>`
	output := filter.FilterHTML(context.Background(), input)

	assert.Equal(t, input, output)
	assert.Empty(t, registrar.urls)
}

func TestAddClickTracking_RegisterFailureLeavesHrefAlone(t *testing.T) {
	registrar := &stubLinkRegistrar{fail: true}
	filter := newClickFilter(registrar)

	input := `<a href="http://example.com/page">Read more</a>`
	output := filter.FilterHTML(context.Background(), input)

	assert.Contains(t, output, `href="http://example.com/page"`)
	assert.NotContains(t, output, "/t/click/")
}

func TestAddClickTracking_DisabledLeavesBodyAlone(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	registrar := &stubLinkRegistrar{}
	filter := NewAddClickTracking(cfg, testCodec(), registrar, getLogger())

	input := `<a href="http://example.com/page">Read more</a>`
	output := filter.FilterHTML(context.Background(), input)

	assert.Equal(t, input, output)
	assert.Empty(t, registrar.urls)
}

func TestAddClickTracking_PreservesSurroundingMarkup(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	filter := newClickFilter(registrar)

	input := "<!-- header -->\n<div class=\"content\">\n  <a href=\"http://example.com\">x</a>\n</div>"
	output := filter.FilterHTML(context.Background(), input)

	require.Contains(t, output, "<!-- header -->")
	assert.Contains(t, output, `<div class="content">`)
	assert.Contains(t, output, "</div>")
}

func TestChain_ClickRunsBeforeOpen(t *testing.T) {
	registrar := &stubLinkRegistrar{}
	marker := &stubOpenMarker{}
	click := newClickFilter(registrar)
	open := NewAddOpenTracking(enabledConfig(), testCodec(), marker, getLogger())
	chain := NewChain(click, open)

	input := `<html><body><a href="http://example.com">x</a></body></html>`
	output := chain.FilterHTML(context.Background(), input)

	// the open pixel URL must not be turned into a click link
	assert.Contains(t, output, open.URL())
	assert.Equal(t, []string{"http://example.com"}, registrar.urls)
	assert.True(t, marker.marked)
}
