// Package envelope encodes and validates the identity payload carried in a
// library QR code.
//
// Decoding runs in two phases. First, every accepted field name, including
// legacy aliases such as realTimeAuthCode or encryptedPasswordToken, is folded
// into one canonical Envelope. Second, the canonical record is validated in a
// fixed order: missing fields, system id, user type, then system tag. Hard
// failures are returned as errors. A user id that does not match the role's
// pattern and an envelope older than MaxAge are reported as warnings on the
// Result and never reject the envelope.
//
//	codec := envelope.New()
//	text, _ := codec.Encode(envelope.Identity{FullName: "Maria Cruz", UserID: "KC-24-A-00001", UserType: envelope.Student})
//	res, err := codec.Decode(text)
//	if errors.Is(err, envelope.ErrRoleTagMismatch) {
//		// reject
//	}
package envelope
