package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuttlefish/cuttlefish/internal/models"
)

func newTestCodec() *Codec {
	return NewCodec("super secret", "cuttlefish.io", "https")
}

func TestHashID_Stable(t *testing.T) {
	codec := newTestCodec()

	first := codec.HashID(2)
	second := codec.HashID(2)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestHashID_SecretDependent(t *testing.T) {
	codec := newTestCodec()
	other := NewCodec("different secret", "cuttlefish.io", "https")

	assert.NotEqual(t, codec.HashID(2), other.HashID(2))
}

func TestDecodeAndVerify_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	id, err := codec.DecodeAndVerify("2", codec.HashID(2))

	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)
}

func TestDecodeAndVerify_RejectsTamperedHash(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.DecodeAndVerify("2", "0000000000000000")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// hash for another delivery must not validate
	_, err = codec.DecodeAndVerify("2", codec.HashID(3))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeAndVerify_RejectsMalformedID(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.DecodeAndVerify("not-a-number", codec.HashID(2))

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOpenURL(t *testing.T) {
	codec := newTestCodec()

	url := codec.OpenURL(2, "cuttlefish.io", "https")

	assert.Equal(t, "https://cuttlefish.io/t/open/2/"+codec.HashID(2)+".gif", url)
}

func TestClickURL_EscapesDestination(t *testing.T) {
	codec := newTestCodec()

	url := codec.ClickURL(2, "http://example.com/path?a=b&c=d", "cuttlefish.io", "https")

	assert.Contains(t, url, "https://cuttlefish.io/t/click/2/"+codec.HashID(2))
	assert.Contains(t, url, "url=http%3A%2F%2Fexample.com%2Fpath%3Fa%3Db%26c%3Dd")
}

func TestHostProtocol(t *testing.T) {
	codec := newTestCodec()

	host, protocol := codec.HostProtocol(&models.App{})
	assert.Equal(t, "cuttlefish.io", host)
	assert.Equal(t, "https", protocol)

	host, protocol = codec.HostProtocol(&models.App{
		CustomTrackingDomain:         "email.example.com",
		CustomTrackingDomainVerified: true,
	})
	assert.Equal(t, "email.example.com", host)
	assert.Equal(t, "https", protocol)
}
