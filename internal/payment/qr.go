package payment

import (
	"github.com/skip2/go-qrcode"
)

// QRCode encode l'URL de paiement en PNG
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
