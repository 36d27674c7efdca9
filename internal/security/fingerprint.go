package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// RefreshTokenFingerprint derives the session-matching value for a refresh
// token. The fingerprint is not a secret; it only has to change on every
// rotation so that a superseded token stops matching its session row. The
// pepper keeps raw token material out of the database.
func RefreshTokenFingerprint(token, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
