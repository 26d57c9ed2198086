package common

// WipeByteArray overwrites b with zeros. Used for passwords once they
// have been sent to the auth endpoint.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
