package filters

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/html"

	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

// AddClickTracking rewrites outbound anchor hrefs to redirect through the
// click tracking endpoint. One instance serves one message.
type AddClickTracking struct {
	cfg       TrackingConfig
	urls      URLBuilder
	registrar LinkRegistrar
	log       logger.Logger
}

func NewAddClickTracking(cfg TrackingConfig, urls URLBuilder, registrar LinkRegistrar, log logger.Logger) *AddClickTracking {
	return &AddClickTracking{
		cfg:       cfg,
		urls:      urls,
		registrar: registrar,
		log:       log,
	}
}

func (f *AddClickTracking) FilterHTML(ctx context.Context, input string) string {
	if !f.cfg.Enabled {
		return input
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "AddClickTracking.FilterHTML")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagDelivery(span, f.cfg.DeliveryID)

	output, err := f.rewriteAnchors(ctx, input)
	if err != nil {
		// fail closed rather than ship a corrupted body
		tracing.TraceErr(span, err)
		f.log.Errorf("delivery %d: could not rewrite anchors, leaving body untouched: %v", f.cfg.DeliveryID, err)
		return input
	}
	return output
}

// rewriteAnchors walks the document with a tokenizer so everything except
// rewritten anchor tags keeps its original bytes.
func (f *AddClickTracking) rewriteAnchors(ctx context.Context, input string) (string, error) {
	var buf bytes.Buffer
	registered := make(map[string]bool)

	z := html.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return buf.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) == "a" && hasAttr {
				token := z.Token()
				f.rewriteAnchorToken(ctx, &token, registered)
				buf.WriteString(token.String())
				continue
			}
			buf.Write(z.Raw())
		default:
			buf.Write(z.Raw())
		}
	}
}

func (f *AddClickTracking) rewriteAnchorToken(ctx context.Context, token *html.Token, registered map[string]bool) {
	for i, attr := range token.Attr {
		if attr.Key != "href" || !f.trackable(attr.Val) {
			continue
		}

		if !registered[attr.Val] {
			if err := f.registrar.Register(ctx, f.cfg.DeliveryID, attr.Val); err != nil {
				// no tracked link without its entry; leave the href alone
				f.log.Errorf("delivery %d: could not register tracked link %s: %v", f.cfg.DeliveryID, attr.Val, err)
				return
			}
			registered[attr.Val] = true
		}

		token.Attr[i].Val = f.urls.ClickURL(f.cfg.DeliveryID, attr.Val, f.cfg.TrackingHost, f.cfg.TrackingProtocol)
	}
}

// trackable accepts absolute http(s) destinations that aren't already
// tracking links of our own.
func (f *AddClickTracking) trackable(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if !utils.IsStringInSlice(u.Scheme, []string{"http", "https"}) {
		return false
	}
	if u.Host == "" || u.Host == f.cfg.TrackingHost {
		return false
	}
	return true
}
