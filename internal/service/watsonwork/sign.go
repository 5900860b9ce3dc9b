package watsonwork

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// SignatureHeader carries the hex HMAC-SHA256 of a webhook body, keyed with the
// webhook secret, in both directions.
const SignatureHeader = "X-OUTBOUND-TOKEN"

var ErrBadSignature = errors.New("invalid webhook signature")

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a webhook body against the signature Watson Work sent with it.
func Verify(secret string, body []byte, signature string) error {
	want, err := hex.DecodeString(signature)
	if err != nil || signature == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrBadSignature
	}
	return nil
}

// ChallengeResponse builds the body and signature answering a webhook
// verification challenge.
func ChallengeResponse(secret, challenge string) (body []byte, signature string, err error) {
	body, err = json.Marshal(struct {
		Response string `json:"response"`
	}{Response: challenge})
	if err != nil {
		return nil, "", err
	}
	return body, Sign(secret, body), nil
}
