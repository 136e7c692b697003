package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token's structure cannot be parsed at
// all, as opposed to a token that parses but fails signature or expiry
// checks.
var ErrMalformedToken = errors.New("malformed token")

type claims struct {
	jwt.RegisteredClaims
}

// Codec issues and checks signed bearer tokens. Tokens are single-shot
// credentials with a fixed lifetime; there is no refresh.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Issue signs a token carrying subject, valid for the codec's TTL.
func (c *Codec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}
	now := c.now()
	cl := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return token.SignedString(c.secret)
}

// ExtractSubject decodes the subject without verifying signature or expiry.
// Callers use this to tell "could not parse" apart from "parsed but
// invalid"; an unparseable token yields ErrMalformedToken.
func (c *Codec) ExtractSubject(token string) (string, error) {
	var cl claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &cl); err != nil {
		return "", ErrMalformedToken
	}
	if cl.Subject == "" {
		return "", ErrMalformedToken
	}
	return cl.Subject, nil
}

// Validate reports whether the token's signature is intact and its expiry
// has not passed. Pure in-memory check, no I/O.
func (c *Codec) Validate(token string) bool {
	var cl claims
	t, err := jwt.ParseWithClaims(token, &cl,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	return err == nil && t.Valid
}

// TTL reports the lifetime applied to issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }
