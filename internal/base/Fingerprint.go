package base

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/sha256-simd"
)

/***************************************
 * Fingerprint
 ***************************************/

type Fingerprint [sha256.Size]byte

func (x Fingerprint) Slice() []byte {
	return x[:]
}
func (x Fingerprint) String() string {
	return hex.EncodeToString(x[:])
}
func (x *Fingerprint) Set(str string) (err error) {
	var data []byte
	if data, err = hex.DecodeString(str); err == nil {
		if len(data) == sha256.Size {
			copy(x[:], data)
			return nil
		}
		err = fmt.Errorf("fingerprint: unexpected string length '%s'", str)
	}
	return err
}
func (x Fingerprint) MarshalText() ([]byte, error) {
	buf := [sha256.Size * 2]byte{}
	hex.Encode(buf[:], x[:])
	return buf[:], nil
}
func (x *Fingerprint) UnmarshalText(data []byte) error {
	return x.Set(string(data))
}

func StringFingerprint(in string) Fingerprint {
	return sha256.Sum256([]byte(in))
}

// StringsFingerprint digests each part length-prefixed, so ("ab","c") and ("a","bc") differ.
func StringsFingerprint(parts ...string) (result Fingerprint) {
	digester := sha256.New()
	for _, it := range parts {
		fmt.Fprintf(digester, "%d:%s;", len(it), it)
	}
	copy(result[:], digester.Sum(nil))
	return
}
