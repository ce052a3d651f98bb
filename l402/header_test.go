package l402

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestChallengeRoundTrip ensures formatting a challenge and parsing it back
// yields the same macaroon/invoice pair, as required by the round-trip
// property in the protocol's testable properties.
func TestChallengeRoundTrip(t *testing.T) {
	t.Parallel()

	const (
		macB64  = "AGIAJEemVQUTEyNCR0exk7ek90Cg=="
		invoice = "lnbc1u1pwtest"
	)

	header := http.Header{}
	SetChallengeHeader(header, macB64, invoice)

	challenge, err := ParseChallenge(header)
	require.NoError(t, err)
	require.Equal(t, macB64, challenge.Macaroon)
	require.Equal(t, invoice, challenge.Invoice)
}

func TestParseChallengeMissing(t *testing.T) {
	t.Parallel()

	_, err := ParseChallenge(http.Header{})
	require.ErrorIs(t, err, ErrMissingChallenge)
}

func TestParseChallengeMalformed(t *testing.T) {
	t.Parallel()

	tests := []string{
		`L402 macaroon="onlymac"`,
		`L402 invoice="onlyinv"`,
		`L402 `,
	}

	for _, value := range tests {
		header := http.Header{}
		header.Set(HeaderWWWAuthenticate, value)

		_, err := ParseChallenge(header)
		require.ErrorIs(t, err, ErrMalformedChallenge)
	}
}

func TestParseChallengeCaseInsensitiveField(t *testing.T) {
	t.Parallel()

	// http.Header canonicalizes field names, so a lowercase
	// www-authenticate set via Add still round-trips through Get.
	header := http.Header{}
	header.Add("www-authenticate", `L402 macaroon="m", invoice="i"`)

	challenge, err := ParseChallenge(header)
	require.NoError(t, err)
	require.Equal(t, "m", challenge.Macaroon)
	require.Equal(t, "i", challenge.Invoice)
}

// TestCredentialRoundTrip mirrors TestChallengeRoundTrip for the
// Authorization/credential header.
func TestCredentialRoundTrip(t *testing.T) {
	t.Parallel()

	const (
		macB64      = "AGIAJEemVQUTEyNCR0exk7ek90Cg=="
		preimageHex = "2f84e22556af9919f695d7761f404e98ff98058b7d32074de8c0c83bf63eecd7"
	)

	header := http.Header{}
	SetCredentialHeader(header, macB64, preimageHex)

	cred, err := ParseCredential(header)
	require.NoError(t, err)
	require.Equal(t, macB64, cred.Macaroon)
	require.Equal(t, preimageHex, cred.PreimageHex)
}

func TestParseCredentialRejectsBadScheme(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set(HeaderAuthorization, "Bearer abc:def")

	_, err := ParseCredential(header)
	require.ErrorIs(t, err, ErrInvalidAuthHeader)
}

func TestParseCredentialRejectsExtraColons(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set(HeaderAuthorization, "L402 abc:def:ghi")

	_, err := ParseCredential(header)
	require.ErrorIs(t, err, ErrInvalidAuthHeader)
}

func TestParseCredentialRejectsEmptyHalves(t *testing.T) {
	t.Parallel()

	tests := []string{"L402 :def", "L402 abc:", "L402 :"}
	for _, value := range tests {
		header := http.Header{}
		header.Set(HeaderAuthorization, value)

		_, err := ParseCredential(header)
		require.ErrorIs(t, err, ErrInvalidAuthHeader)
	}
}
