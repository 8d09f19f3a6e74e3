package handshake

import "github.com/tturner/motordrive/internal/enip"

// BuildRegisterSession returns the fixed 28-byte RegisterSession request.
// It is a thin alias over enip.BuildRegisterSessionRequest so callers only
// need to import one package for the whole handshake sequence.
func BuildRegisterSession() []byte {
	return enip.BuildRegisterSessionRequest()
}

// ParseRegisterSessionReply extracts the session handle from a
// RegisterSession reply.
func ParseRegisterSessionReply(reply []byte) (uint32, error) {
	return enip.ParseRegisterSessionResponse(reply)
}
