// Package qr renders flyer QR codes that point at a bulletin event.
package qr

import (
	"errors"
	"strings"

	"github.com/skip2/go-qrcode"

	"ms-bulletin/internal/models"
)

const DefaultSize = 256

type Generator struct {
	BaseURL string
	Size    int
}

func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: strings.TrimRight(baseURL, "/"), Size: DefaultSize}
}

// TargetURL is the event's own link when it has one, otherwise its anchor
// on the public bulletin page.
func (g *Generator) TargetURL(ev models.Event) string {
	if ev.Link != "" {
		return ev.Link
	}
	return g.BaseURL + "/#event-" + ev.ID
}

// PNG encodes TargetURL(ev) as a square PNG.
func (g *Generator) PNG(ev models.Event) ([]byte, error) {
	if ev.ID == "" {
		return nil, errors.New("event has no id")
	}
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(g.TargetURL(ev), qrcode.Medium, size)
}
