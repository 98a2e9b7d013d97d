package bot

import "testing"

func TestDeepLinkRoundTrip(t *testing.T) {
	codes := []string{"night01", "night 01", "a&b", "50%off"}

	for _, code := range codes {
		link := DeepLink("some_bot", code)
		payload := link[len("https://t.me/some_bot?start="):]
		if got := decodeStartPayload(payload); got != code {
			t.Errorf("round trip of %q = %q", code, got)
		}
	}
}

func TestDeepLinkEscapesReservedCharacters(t *testing.T) {
	got := DeepLink("some_bot", "a&b c")
	want := "https://t.me/some_bot?start=a%26b+c"
	if got != want {
		t.Errorf("DeepLink = %q, want %q", got, want)
	}
}

func TestDecodeStartPayloadPassesThroughInvalidEncoding(t *testing.T) {
	if got := decodeStartPayload("bad%zz"); got != "bad%zz" {
		t.Errorf("invalid encoding should pass through, got %q", got)
	}
}

func TestChannelURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@mychannel", "https://t.me/mychannel"},
		{"-1001234567", "https://t.me/c/1234567"},
		{"mychannel", "https://t.me/mychannel"},
	}

	for _, tt := range tests {
		if got := channelURL(tt.in); got != tt.want {
			t.Errorf("channelURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChannelTitle(t *testing.T) {
	if got := channelTitle("@mychannel"); got != "mychannel" {
		t.Errorf("channelTitle = %q, want mychannel", got)
	}
}
