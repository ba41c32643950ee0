package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Signer computes the gateway token: SHA-256 over the values of the request
// parameters plus Merchant and Secret, concatenated in key order.
type Signer struct {
	merchant string
	secret   string
}

func NewSigner(merchant, secret string) *Signer {
	return &Signer{merchant: merchant, secret: secret}
}

func (s *Signer) Token(params map[string]string) string {
	all := make(map[string]string, len(params)+2)
	for k, v := range params {
		all[k] = v
	}
	all["Merchant"] = s.merchant
	all["Secret"] = s.secret

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(all[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (s *Signer) Verify(params map[string]string, token string) bool {
	want := s.Token(params)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(token)))) == 1
}
