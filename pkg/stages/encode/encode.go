// Package encode implements the preview image encoding stage.
package encode

import (
	"context"
	"fmt"

	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/ports"
)

// DefaultQuality is used when EncodeInput.Quality is out of range.
const DefaultQuality = 80

// Stage encodes a composed preview into JPEG or PNG bytes.
type Stage struct {
	renderer ports.Renderer
}

// NewStage creates a new encode stage.
func NewStage(renderer ports.Renderer) *Stage {
	return &Stage{
		renderer: renderer,
	}
}

// Execute encodes one image.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.EncodeResult{}, err
	}
	if input.Image == nil {
		return pipeline.EncodeResult{}, fmt.Errorf("no image to encode")
	}

	quality := input.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	data, err := s.renderer.EncodeImage(input.Image, input.Format, quality)
	if err != nil {
		return pipeline.EncodeResult{}, fmt.Errorf("encode preview: %w", err)
	}

	return pipeline.EncodeResult{Data: data, Format: input.Format}, nil
}
