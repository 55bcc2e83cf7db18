package codec

// appendString appends a UTF-8 string with a 2-byte big-endian length
// prefix, the standard MQTT string encoding (grounded on the teacher's
// appendString, encoding.go).
func appendString(dst []byte, s string) []byte {
	n := uint16(len(s))
	dst = append(dst, byte(n>>8), byte(n))
	return append(dst, s...)
}

// appendBinary appends length-prefixed binary data.
func appendBinary(dst []byte, data []byte) []byte {
	n := uint16(len(data))
	dst = append(dst, byte(n>>8), byte(n))
	return append(dst, data...)
}

// decodeString decodes a length-prefixed string from buf, returning the
// string and the number of bytes consumed.
func decodeString(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, ErrMalformed
	}
	n := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+n {
		return "", 0, ErrMalformed
	}
	return string(buf[2 : 2+n]), 2 + n, nil
}

// decodeBinary decodes length-prefixed binary data from buf.
func decodeBinary(buf []byte) ([]byte, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrMalformed
	}
	n := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+n {
		return nil, 0, ErrMalformed
	}
	return buf[2 : 2+n], 2 + n, nil
}
