package object

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload excludes the signature header itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}
