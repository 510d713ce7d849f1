package postcapture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/ShotMark/internal/history"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/jung-kurt/gofpdf"
)

// SaveToDisk writes the screenshot as a PNG and records it in the history
type SaveToDisk struct {
	Dir string
	// Now is replaceable for tests
	Now func() time.Time
}

func NewSaveToDisk(dir string) *SaveToDisk {
	return &SaveToDisk{Dir: dir, Now: time.Now}
}

func (*SaveToDisk) ID() string          { return "save-to-disk" }
func (*SaveToDisk) Name() string        { return "Save to disk" }
func (*SaveToDisk) Description() string { return "Saves the screenshot to the hard drive" }

func (a *SaveToDisk) Handle(env Env, img *image.RGBA) error {
	now := a.Now()
	path, err := outputPath(a.Dir, now, "png")
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create screenshot file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	logger.WithComponent("postcapture").Info().Str("path", path).Msg("Screenshot saved")

	return env.record(history.Entry{Path: path, Time: now})
}

// SaveToPDF writes the screenshot as a single page PDF sized to the image
type SaveToPDF struct {
	Dir string
	Now func() time.Time
}

func NewSaveToPDF(dir string) *SaveToPDF {
	return &SaveToPDF{Dir: dir, Now: time.Now}
}

func (*SaveToPDF) ID() string          { return "save-to-pdf" }
func (*SaveToPDF) Name() string        { return "Save as PDF" }
func (*SaveToPDF) Description() string { return "Saves the screenshot as a one page PDF document" }

func (a *SaveToPDF) Handle(env Env, img *image.RGBA) error {
	now := a.Now()
	path, err := outputPath(a.Dir, now, "pdf")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Screenshot "+now.Format(time.RFC3339), true)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("screenshot", opts, &buf)
	pdf.ImageOptions("screenshot", 0, 0, w, h, false, opts, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	logger.WithComponent("postcapture").Info().Str("path", path).Msg("Screenshot saved as PDF")

	return env.record(history.Entry{Path: path, Time: now})
}

// outputPath builds dir/screenshot_<RFC3339>.<ext>, creating dir
func outputPath(dir string, now time.Time, ext string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("screenshot_%s.%s", now.Format(time.RFC3339), ext)), nil
}
