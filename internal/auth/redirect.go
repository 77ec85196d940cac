package auth

import (
	"errors"
	"net/url"
)

// ErrNoRedirectToken is returned when a redirect URL carries no access token.
var ErrNoRedirectToken = errors.New("no access token in redirect url")

// RedirectTokens are the credentials appended to password-reset and confirmation links.
type RedirectTokens struct {
	AccessToken string
	Type        string
}

// ParseRedirectTokens extracts access_token and type from a redirect URL.
// The fragment is checked first, then the query string.
func ParseRedirectTokens(raw string) (RedirectTokens, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RedirectTokens{}, err
	}

	fragment, _ := url.ParseQuery(u.Fragment)
	query := u.Query()

	for _, values := range []url.Values{fragment, query} {
		if token := values.Get("access_token"); token != "" {
			typ := values.Get("type")
			if typ == "" {
				typ = firstNonEmpty(fragment.Get("type"), query.Get("type"))
			}
			return RedirectTokens{AccessToken: token, Type: typ}, nil
		}
	}
	return RedirectTokens{}, ErrNoRedirectToken
}

// BuildRedirectURL appends tokens to base as a fragment, the location ParseRedirectTokens prefers.
func BuildRedirectURL(base string, tokens RedirectTokens) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("access_token", tokens.AccessToken)
	if tokens.Type != "" {
		v.Set("type", tokens.Type)
	}
	u.Fragment = v.Encode()
	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
