package services

import (
	"strings"
	"testing"
)

func TestNewQRCode_Shape(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewQRCode()
		if err != nil {
			t.Fatalf("NewQRCode: %v", err)
		}
		if len(code) != 10 || !strings.HasPrefix(code, QRCodePrefix) {
			t.Fatalf("bad code %q", code)
		}
		if !IsQRCode(code) {
			t.Fatalf("IsQRCode(%q) = false", code)
		}
	}
}

// Every alphabet character should show up, and no character should dominate.
func TestNewQRCode_CoversAlphabet(t *testing.T) {
	const draws = 2000
	counts := map[rune]int{}
	for i := 0; i < draws; i++ {
		code, err := NewQRCode()
		if err != nil {
			t.Fatalf("NewQRCode: %v", err)
		}
		for _, r := range code[len(QRCodePrefix):] {
			counts[r]++
		}
	}
	if len(counts) != len(qrAlphabet) {
		t.Fatalf("saw %d distinct characters, want %d", len(counts), len(qrAlphabet))
	}
	// expected ≈ 444 per character; allow a wide band
	exp := draws * QRCodeRandomLen / len(qrAlphabet)
	for r, n := range counts {
		if n < exp/2 || n > exp*2 {
			t.Fatalf("character %q drawn %d times, expected about %d", r, n, exp)
		}
	}
}

func TestIsQRCode(t *testing.T) {
	cases := map[string]bool{
		"QRABCDEF12":  true,
		"QR00000000":  true,
		"qrABCDEF12":  false,
		"QRabcdef12":  false,
		"QRABCDEF1":   false,
		"QRABCDEF123": false,
		"XXABCDEF12":  false,
		"QRABCD-F12":  false,
		"":            false,
	}
	for in, want := range cases {
		if got := IsQRCode(in); got != want {
			t.Fatalf("IsQRCode(%q) = %v, want %v", in, got, want)
		}
	}
}
