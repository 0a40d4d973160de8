package qr

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// Encoder renders registration credentials as QR images under a fixed
// artifact root and maps them to public locators.
type Encoder struct {
	dir          string
	publicPrefix string
}

func NewEncoder(dir, publicPrefix string) *Encoder {
	return &Encoder{dir: dir, publicPrefix: publicPrefix}
}

// Payload is the exact text embedded in the credential image.
func Payload(registrationID, attendeeName, eventTitle string) string {
	return fmt.Sprintf("Registration ID: %s\nName: %s\nEvent: %s", registrationID, attendeeName, eventTitle)
}

// Encode writes <registrationID>.png under the artifact root and returns the
// public locator it will be served from. Writing the same id twice overwrites
// the same file; ids are never reused so that only matters for retries.
func (e *Encoder) Encode(registrationID, attendeeName, eventTitle string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", e.dir, err)
	}

	filename := registrationID + ".png"
	target := filepath.Join(e.dir, filename)
	payload := Payload(registrationID, attendeeName, eventTitle)

	if err := qrcode.WriteFile(payload, qrcode.Medium, imageSize, target); err != nil {
		return "", fmt.Errorf("write qr artifact %s: %w", target, err)
	}

	return path.Join(e.publicPrefix, filename), nil
}

// Remove deletes the artifact for a registration id. Missing files are not an
// error; the row is already gone and an orphan sweep handles the rest.
func (e *Encoder) Remove(registrationID string) error {
	err := os.Remove(filepath.Join(e.dir, registrationID+".png"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove qr artifact: %w", err)
	}
	return nil
}
