package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignatureValid(t *testing.T) {
	raw := []byte(`{"eventId":"evt-1","amount":250}`)
	secret := "super-secret-webhook-key"

	header := Sign(raw, secret)
	require.True(t, VerifySignature(raw, header, secret))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	raw := []byte(`{"eventId":"evt-1","amount":250}`)

	header := Sign(raw, "secret-number-one-aaaa")
	require.False(t, VerifySignature(raw, header, "secret-number-two-bbbb"))
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	secret := "super-secret-webhook-key"
	header := Sign([]byte(`{"amount":250}`), secret)

	require.False(t, VerifySignature([]byte(`{"amount":9250}`), header, secret))
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	raw := []byte(`{}`)
	secret := "super-secret-webhook-key"
	valid := Sign(raw, secret)

	cases := map[string]string{
		"empty":           "",
		"no scheme":       valid[len("sha256="):],
		"wrong scheme":    "md5=" + valid[len("sha256="):],
		"extra separator": valid + "=x",
		"not hex":         "sha256=zzzz",
		"truncated":       "sha256=abcd",
		"scheme only":     "sha256=",
	}

	for name, header := range cases {
		require.False(t, VerifySignature(raw, header, secret), name)
	}
}

func TestVerifySignatureRawBytesNotReserialized(t *testing.T) {
	// field order matters: the signature covers the transmitted bytes, so a
	// re-serialized equivalent document must not validate
	secret := "super-secret-webhook-key"
	sent := []byte(`{"a":1,"b":2}`)
	reordered := []byte(`{"b":2,"a":1}`)

	header := Sign(sent, secret)
	require.True(t, VerifySignature(sent, header, secret))
	require.False(t, VerifySignature(reordered, header, secret))
}
