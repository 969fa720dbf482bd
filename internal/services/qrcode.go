package services

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	// QRCodePrefix starts every QR-code ID.
	QRCodePrefix = "QR"
	// QRCodeRandomLen is the number of random characters after the prefix.
	QRCodeRandomLen = 8
	// qrAlphabet is the 36-character alphabet the random part is drawn from.
	qrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// qrRejectAbove is the largest multiple of len(qrAlphabet) that fits in a
	// byte; bytes at or above it are redrawn to keep the draw uniform.
	qrRejectAbove = 252
)

// qrCodeRE matches a well-formed QR-code ID.
var qrCodeRE = regexp.MustCompile(`^QR[A-Z0-9]{8}$`)

// NewQRCode returns a candidate QR-code ID: "QR" followed by 8 characters
// drawn uniformly from A-Z0-9 using crypto/rand. It does not check the store.
func NewQRCode() (string, error) {
	out := make([]byte, 0, len(QRCodePrefix)+QRCodeRandomLen)
	out = append(out, QRCodePrefix...)

	var buf [16]byte
	for len(out) < cap(out) {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= qrRejectAbove {
				continue
			}
			out = append(out, qrAlphabet[int(b)%len(qrAlphabet)])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}

// IsQRCode reports whether s has the shape of a generated QR-code ID.
func IsQRCode(s string) bool { return qrCodeRE.MatchString(s) }
