package forwarding

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"mc-forward-proxy/internal/mcproto"
)

// rawPayloadFixture builds the fixed 65-byte raw_payload used by the HMAC
// correctness test vector: VarInt(1) || MCString("127.0.0.1") ||
// 16 zero bytes || MCString("player") || VarInt(0).
func rawPayloadFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := mcproto.VarInt(1).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if err := mcproto.WriteString(&buf, "127.0.0.1", mcproto.MaxStringLength); err != nil {
		t.Fatal(err)
	}
	buf.Write(make([]byte, 16))
	if err := mcproto.WriteString(&buf, "player", mcproto.MaxUsernameLength); err != nil {
		t.Fatal(err)
	}
	if err := mcproto.VarInt(0).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 65 {
		t.Fatalf("raw_payload length = %d, want 65", buf.Len())
	}
	return buf.Bytes()
}

func TestHMACCorrectness(t *testing.T) {
	secret := []byte("mysecret")
	raw := rawPayloadFixture(t)

	mac := hmac.New(sha256.New, secret)
	mac.Write(raw)
	correct := mac.Sum(nil)

	if !Verify(secret, raw, correct) {
		t.Fatal("Verify should return true for the correct HMAC")
	}

	wrong := make([]byte, 32)
	if Verify(secret, raw, wrong) {
		t.Fatal("Verify should return false for an all-zero signature")
	}
}
