package domain

// Zero overwrites every given buffer with zeros. Nil and empty buffers are ignored.
// Call it on plaintext key material and decrypted values once they are no longer needed.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
