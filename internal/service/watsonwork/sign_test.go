package watsonwork_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/service/watsonwork"
)

var _ = Describe("webhook signatures", func() {
	const secret = "s3cret"
	body := []byte(`{"type":"message-annotation-added","spaceId":"space-1"}`)

	expected := func(b []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(b)
		return hex.EncodeToString(mac.Sum(nil))
	}

	It("signs with hex HMAC-SHA256", func() {
		Expect(watsonwork.Sign(secret, body)).To(Equal(expected(body)))
	})

	It("accepts a valid signature", func() {
		Expect(watsonwork.Verify(secret, body, expected(body))).To(Succeed())
	})

	DescribeTable("rejects bad signatures",
		func(sig string) {
			Expect(watsonwork.Verify(secret, body, sig)).To(MatchError(watsonwork.ErrBadSignature))
		},
		Entry("missing", ""),
		Entry("not hex", "zz-not-hex"),
		Entry("other secret", func() string {
			mac := hmac.New(sha256.New, []byte("other"))
			mac.Write(body)
			return hex.EncodeToString(mac.Sum(nil))
		}()),
	)

	It("rejects a tampered body", func() {
		sig := expected(body)
		Expect(watsonwork.Verify(secret, append(body, ' '), sig)).To(MatchError(watsonwork.ErrBadSignature))
	})

	It("answers a verification challenge", func() {
		resp, sig, err := watsonwork.ChallengeResponse(secret, "abc123")
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]string
		Expect(json.Unmarshal(resp, &decoded)).To(Succeed())
		Expect(decoded).To(Equal(map[string]string{"response": "abc123"}))
		Expect(sig).To(Equal(expected(resp)))
	})
})
