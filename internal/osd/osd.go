package osd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Detector reports the coarse text orientation of a page image using the
// Tesseract CLI in OSD mode (--psm 0). gosseract does not expose the OSD
// result, so this shells out the same way the full CLI tooling does.
//
// All failures degrade to "no opinion": a page with no detectable text
// orientation is indistinguishable from an upright page at this layer.
type Detector struct {
	bin       string
	languages string
}

// New creates an OSD detector using the given tesseract binary name/path.
func New(bin, languages string) *Detector {
	if bin == "" {
		bin = "tesseract"
	}
	return &Detector{bin: bin, languages: languages}
}

// IsAvailable checks if the tesseract binary can be found.
func (d *Detector) IsAvailable() bool {
	_, err := exec.LookPath(d.bin)
	return err == nil
}

// Detect returns the raw clockwise orientation of the content in degrees
// (0/90/180/270) and true, or (0, false) when Tesseract has no opinion or the
// call fails for any reason.
func (d *Detector) Detect(ctx context.Context, img image.Image) (int, bool) {
	tmp, err := writeTempPNG(img)
	if err != nil {
		log.Warn().Err(err).Msg("osd: temp image write failed")
		return 0, false
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, d.bin, tmp, "stdout", "--psm", "0")
	if d.languages != "" {
		cmd.Args = append(cmd.Args, "-l", d.languages)
	}

	output, err := cmd.Output()
	if err != nil {
		// Typical on pages with too little text for OSD; not an error condition.
		log.Debug().Err(err).Msg("osd: tesseract psm 0 returned no result")
		return 0, false
	}

	deg, ok := parseOrientation(string(output))
	if !ok {
		log.Debug().Msg("osd: orientation line missing from tesseract output")
		return 0, false
	}
	return deg, true
}

// parseOrientation extracts the "Orientation in degrees" value from tesseract
// OSD output and normalizes it into {0, 90, 180, 270}.
func parseOrientation(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Orientation in degrees") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			return 0, false
		}
		deg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
		if err != nil {
			return 0, false
		}
		deg = ((deg % 360) + 360) % 360
		if deg%90 != 0 {
			return 0, false
		}
		return deg, true
	}
	return 0, false
}

func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "osd-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("encode temp image: %w", err)
	}
	return f.Name(), nil
}
