package handshake

// BuildForwardCloseTemplate builds a Forward_Close request for the given
// connection path. Origin-side Forward_Close is a non-goal of the command
// engine (the session is abandoned, not gracefully torn down), but the
// codec is kept for tests and for callers that do want a clean close.
func BuildForwardCloseTemplate(p ConnectionParams) []byte {
	var cip []byte
	cip = append(cip, 0x4E) // Forward_Close service
	cip = append(cip, 0x02)
	cip = append(cip, 0x20, cmClass, 0x24, cmInstance)
	cip = append(cip, priorityByte(p.Priority))
	cip = appendU16(cip, p.TimeoutSec)

	path := p.ConnectionPath
	pathWords := len(path) / 2
	if len(path)%2 != 0 {
		pathWords++
	}
	cip = append(cip, byte(pathWords))
	cip = append(cip, path...)
	if len(path)%2 != 0 {
		cip = append(cip, 0x00)
	}
	return cip
}

// ParseForwardCloseReply reports whether a Forward_Close succeeded by
// reading the CIP general-status byte at the conventional offset.
func ParseForwardCloseReply(cipReply []byte) bool {
	if len(cipReply) < 3 {
		return false
	}
	pathWords := int(cipReply[1])
	offset := 2 + 2*pathWords
	if len(cipReply) <= offset {
		return false
	}
	return cipReply[offset] == 0
}
