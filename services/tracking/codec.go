package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/internal/models"
)

// ErrInvalidToken is returned for any tracking token that does not verify.
// Callers must not reveal to the client whether the delivery id exists.
var ErrInvalidToken = errors.New("invalid tracking token")

const hashLength = 16

// Codec builds and verifies the opaque identifiers embedded in tracking
// URLs. The hash is keyed with a server-side secret so a third party
// observing delivery ids cannot forge callbacks.
type Codec struct {
	secret          []byte
	defaultHost     string
	defaultProtocol string
}

func NewCodec(secret, defaultHost, defaultProtocol string) *Codec {
	return &Codec{
		secret:          []byte(secret),
		defaultHost:     defaultHost,
		defaultProtocol: defaultProtocol,
	}
}

// HashID returns the integrity hash for a delivery id. Stable for the
// life of the system for a given id and secret.
func (c *Codec) HashID(deliveryID uint64) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(strconv.FormatUint(deliveryID, 10)))
	return hex.EncodeToString(mac.Sum(nil))[:hashLength]
}

// VerifyHash checks a presented hash against the recomputed one in
// constant time.
func (c *Codec) VerifyHash(deliveryID uint64, hash string) bool {
	return hmac.Equal([]byte(hash), []byte(c.HashID(deliveryID)))
}

// DecodeAndVerify is the inverse of the URL builders: it parses the id
// path segment and rejects any token whose hash does not match.
func (c *Codec) DecodeAndVerify(idParam, hash string) (uint64, error) {
	deliveryID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !c.VerifyHash(deliveryID, hash) {
		return 0, ErrInvalidToken
	}
	return deliveryID, nil
}

// OpenURL builds the tracking pixel URL for a delivery.
func (c *Codec) OpenURL(deliveryID uint64, host, protocol string) string {
	u := url.URL{
		Scheme: protocol,
		Host:   host,
		Path:   fmt.Sprintf("/t/open/%d/%s.gif", deliveryID, c.HashID(deliveryID)),
	}
	return u.String()
}

// ClickURL builds the redirect URL a tracked anchor points at.
func (c *Codec) ClickURL(deliveryID uint64, destination, host, protocol string) string {
	q := url.Values{}
	q.Set("url", destination)
	u := url.URL{
		Scheme:   protocol,
		Host:     host,
		Path:     fmt.Sprintf("/t/click/%d/%s", deliveryID, c.HashID(deliveryID)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// HostProtocol picks the tracking host for an app: the verified custom
// domain when one is set, the service's own domain otherwise.
func (c *Codec) HostProtocol(app *models.App) (string, string) {
	if app != nil && app.UsesCustomTrackingDomain() {
		return app.CustomTrackingDomain, "https"
	}
	return c.defaultHost, c.defaultProtocol
}
