package accounts

import (
	"crypto/rand"
	"math/big"
)

const tempCredentialLength = 10

const (
	credLetters = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"
	credDigits  = "23456789"
)

// GenerateTempCredential produces a mixed-alphanumeric credential from
// crypto/rand. It always contains at least one letter and one digit and
// omits lookalike characters (0/O, 1/l/I) since the credential is read to
// the voter over SMS.
func GenerateTempCredential(length int) (string, error) {
	if length < 6 {
		length = 6
	}

	alphabet := credLetters + credDigits
	buf := make([]byte, length)

	pick := func(from string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(from))))
		if err != nil {
			return 0, err
		}
		return from[n.Int64()], nil
	}

	var err error
	if buf[0], err = pick(credLetters); err != nil {
		return "", err
	}
	if buf[1], err = pick(credDigits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if buf[i], err = pick(alphabet); err != nil {
			return "", err
		}
	}

	// Shuffle so the guaranteed letter and digit are not always in front.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}
