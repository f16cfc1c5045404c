package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPWindow is how long a freshly issued code stays valid
const OTPWindow = 10 * time.Minute

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly sampled 6-digit numeric code with
// leading zeros preserved, and the absolute time at which it expires.
// The caller is responsible for storing the pair on the user record
func GenerateOTP() (code string, expiresAt time.Time, err error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", time.Time{}, err
	}

	return fmt.Sprintf("%06d", n.Int64()), time.Now().Add(OTPWindow), nil
}
