package card

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/use-agent/charscrape/models"
)

// Write embeds the card for p into img (or a blank placeholder when img is
// empty) and saves it as <dir>/<sanitized name>.png, creating dir when
// needed. It returns the written path and the base64 payload.
func Write(dir string, p *models.Profile, img []byte, creator string) (string, string, error) {
	payload, err := New(p, creator).Encode()
	if err != nil {
		return "", "", err
	}
	if len(img) == 0 {
		img = Blank()
	}
	out, err := Embed(img, payload)
	if err != nil {
		return "", "", fmt.Errorf("embed card: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create card dir: %w", err)
	}
	path := filepath.Join(dir, SanitizeFilename(p.Name)+".png")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", "", fmt.Errorf("write card: %w", err)
	}
	slog.Info("card: saved", "path", path, "name", p.Name, "bytes", len(out))
	return path, payload, nil
}
