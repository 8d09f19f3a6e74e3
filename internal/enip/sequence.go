package enip

// NextSeq advances a 16-bit sequence counter, wrapping at 2^16 as required
// by both the CTP and Sequenced-Address sequence fields.
func NextSeq(seq uint16) uint16 {
	return seq + 1
}
