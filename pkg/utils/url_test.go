package utils

import "testing"

func TestSHA256Hex(t *testing.T) {
	t.Parallel()

	got := SHA256Hex([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("SHA256Hex(abc) = %s, expected %s", got, want)
	}
	if len(SHA256Hex(nil)) != 64 {
		t.Error("expected a 64 character digest for empty input")
	}
}

func TestHostname(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw  string
		want string
	}{
		{"https://Example.COM./path", "example.com"},
		{"http://[::1]:8080/", "::1"},
		{"http://169.254.169.254/latest", "169.254.169.254"},
		{"mailto:someone", ""},
		{"://bad", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			if got := Hostname(tc.raw); got != tc.want {
				t.Errorf("Hostname(%q) = %q, expected %q", tc.raw, got, tc.want)
			}
		})
	}
}
