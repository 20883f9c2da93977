package whatsapp

import "context"

type Verifier interface {
	VerifyChallenge(mode, token, challenge string) bool
	VerifySignature(body []byte, signature string) bool
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}
