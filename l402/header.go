package l402

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const (
	// HeaderAuthorization is the HTTP header field name used by clients to
	// present a settled L402 credential.
	HeaderAuthorization = "Authorization"

	// HeaderWWWAuthenticate is the HTTP header field name used by servers
	// to present a fresh L402 challenge on a 402 response.
	HeaderWWWAuthenticate = "WWW-Authenticate"

	// authScheme is the RFC 7235 auth-scheme used by this protocol.
	authScheme = "L402"
)

var (
	// challengeRegex matches the quoted, comma-separated challenge
	// grammar: L402 macaroon="...", invoice="...". This is the only
	// challenge grammar this codec accepts; an older, unused
	// space-delimited "version=... macaroon=... invoice=..." grammar was
	// found in prior art and is intentionally not supported.
	challengeRegex = regexp.MustCompile(
		`macaroon="([^ "]+)"|invoice="([^ "]+)"`,
	)

	// credentialRegex matches the "<macaroon>:<preimage>" body of an
	// Authorization: L402 ... header.
	credentialRegex = regexp.MustCompile(`^([^:]*):([^:]*)$`)
)

// Errors returned by the header codec. Each one corresponds to an error kind
// named in the protocol's error handling design.
var (
	// ErrMissingChallenge is returned when a 402 response carries no
	// WWW-Authenticate header at all.
	ErrMissingChallenge = errors.New("l402: missing challenge header")

	// ErrMalformedChallenge is returned when a WWW-Authenticate header is
	// present but does not contain both a macaroon and an invoice value.
	ErrMalformedChallenge = errors.New("l402: malformed challenge header")

	// ErrInvalidAuthHeader is returned when a submitted Authorization
	// header is not a well-formed L402 credential.
	ErrInvalidAuthHeader = errors.New("l402: invalid authorization header")
)

// Challenge is the parsed content of a WWW-Authenticate: L402 ... header, as
// presented by a server on a 402 response.
type Challenge struct {
	// Macaroon is the base64-encoded, freshly minted macaroon.
	Macaroon string

	// Invoice is the BOLT-11 payment request the requester must settle to
	// obtain the preimage needed to redeem Macaroon.
	Invoice string
}

// FormatChallenge renders the canonical WWW-Authenticate header value for
// the given macaroon/invoice pair.
func FormatChallenge(macaroonB64, invoice string) string {
	return fmt.Sprintf(
		`%s macaroon="%s", invoice="%s"`, authScheme, macaroonB64,
		invoice,
	)
}

// SetChallengeHeader sets the WWW-Authenticate header on the provided
// header set to the canonical challenge value for macaroonB64/invoice.
func SetChallengeHeader(header http.Header, macaroonB64, invoice string) {
	header.Set(
		HeaderWWWAuthenticate, FormatChallenge(macaroonB64, invoice),
	)
}

// ParseChallenge reads the WWW-Authenticate header from the given header set
// and parses it into a Challenge. The header is read case-insensitively, as
// required by the protocol (http.Header.Get already normalizes casing).
func ParseChallenge(header http.Header) (*Challenge, error) {
	value := header.Get(HeaderWWWAuthenticate)
	if value == "" {
		return nil, ErrMissingChallenge
	}

	if !strings.HasPrefix(value, authScheme+" ") {
		return nil, fmt.Errorf("%w: unrecognized auth scheme in %q",
			ErrMalformedChallenge, value)
	}

	var macaroonB64, invoice string
	for _, match := range challengeRegex.FindAllStringSubmatch(value, -1) {
		switch {
		case match[1] != "":
			macaroonB64 = match[1]
		case match[2] != "":
			invoice = match[2]
		}
	}

	if macaroonB64 == "" || invoice == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedChallenge, value)
	}

	return &Challenge{Macaroon: macaroonB64, Invoice: invoice}, nil
}

// Credential is the parsed content of an Authorization: L402 ... header, as
// presented by a client redeeming a settled challenge.
type Credential struct {
	// Macaroon is the base64-encoded macaroon that was minted alongside
	// the invoice this credential settles.
	Macaroon string

	// PreimageHex is the hex-encoded, 32-byte Lightning preimage that
	// proves payment of the invoice bound to Macaroon.
	PreimageHex string
}

// FormatCredential renders the canonical Authorization header value for the
// given macaroon/preimage pair. Whitespace after the scheme token is exactly
// one space, with no additional parameters, per the wire format.
func FormatCredential(macaroonB64, preimageHex string) string {
	return fmt.Sprintf("%s %s:%s", authScheme, macaroonB64, preimageHex)
}

// SetCredentialHeader sets the Authorization header on the provided header
// set to the canonical credential value for macaroonB64/preimageHex.
func SetCredentialHeader(header http.Header, macaroonB64, preimageHex string) {
	header.Set(
		HeaderAuthorization,
		FormatCredential(macaroonB64, preimageHex),
	)
}

// ParseCredential reads the Authorization header from the given header set
// and parses it into a Credential. It rejects any header whose scheme token
// is not exactly "L402", whose body does not contain exactly one colon, or
// whose macaroon/preimage halves are empty once trimmed.
func ParseCredential(header http.Header) (*Credential, error) {
	value := header.Get(HeaderAuthorization)
	if value == "" {
		return nil, fmt.Errorf("%w: no authorization header present",
			ErrInvalidAuthHeader)
	}

	scheme, body, ok := strings.Cut(value, " ")
	if !ok || scheme != authScheme {
		return nil, fmt.Errorf("%w: unrecognized scheme in %q",
			ErrInvalidAuthHeader, value)
	}

	matches := credentialRegex.FindStringSubmatch(body)
	if matches == nil {
		return nil, fmt.Errorf("%w: body must contain exactly one "+
			"colon: %q", ErrInvalidAuthHeader, body)
	}

	macaroonB64 := strings.TrimSpace(matches[1])
	preimageHex := strings.TrimSpace(matches[2])
	if macaroonB64 == "" || preimageHex == "" {
		return nil, fmt.Errorf("%w: empty macaroon or preimage in %q",
			ErrInvalidAuthHeader, body)
	}

	return &Credential{
		Macaroon:    macaroonB64,
		PreimageHex: preimageHex,
	}, nil
}

// DecodeMacaroonBytes base64-decodes a macaroon string as carried in either
// header.
func DecodeMacaroonBytes(macaroonB64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(macaroonB64)
}

// EncodeMacaroonBytes base64-encodes a serialized macaroon for use in either
// header.
func EncodeMacaroonBytes(macBytes []byte) string {
	return base64.StdEncoding.EncodeToString(macBytes)
}

// DecodePreimageHex hex-decodes the preimage half of a credential header.
func DecodePreimageHex(preimageHex string) ([]byte, error) {
	return hex.DecodeString(preimageHex)
}
