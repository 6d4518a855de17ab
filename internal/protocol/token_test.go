package protocol

import "testing"

func TestNewTokenHighBitCleared(t *testing.T) {
	// Hardware rejects tokens with the high bit of byte 0 set; the
	// generator must never produce one.
	for i := 0; i < 1000; i++ {
		token := NewToken()
		if token[0]&0x80 != 0 {
			t.Fatalf("token %d: high bit set in first byte (0x%02x)", i, token[0])
		}
	}
}

func TestNewTokenNotZero(t *testing.T) {
	if NewToken().IsZero() {
		t.Error("NewToken() returned the zero token")
	}
}

func TestTokenString(t *testing.T) {
	token := Token{0x01, 0x02, 0xAB}
	got := token.String()
	if len(got) != 2*TokenSize {
		t.Errorf("String() length = %d, want %d", len(got), 2*TokenSize)
	}
	if got[:6] != "0102ab" {
		t.Errorf("String() = %q, want 0102ab prefix", got)
	}
}
