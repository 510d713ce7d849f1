package postcapture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/atotto/clipboard"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// CopyToClipboard hands the PNG bytes to a clipboard helper on stdin
type CopyToClipboard struct {
	Command []string
}

func NewCopyToClipboard() *CopyToClipboard {
	return &CopyToClipboard{
		Command: []string{"xclip", "-selection", "clipboard", "-t", "image/png"},
	}
}

func (*CopyToClipboard) ID() string          { return "copy-to-clipboard" }
func (*CopyToClipboard) Name() string        { return "Copy to clipboard" }
func (*CopyToClipboard) Description() string { return "Copies the picture to the clipboard" }

func (a *CopyToClipboard) Handle(_ Env, img *image.RGBA) error {
	if len(a.Command) == 0 {
		return errors.New("no clipboard command configured")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}

	cmd := exec.Command(a.Command[0], a.Command[1:]...)
	cmd.Stdin = &buf
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", a.Command[0], err, bytes.TrimSpace(out))
	}

	logger.WithComponent("postcapture").Info().Int("bytes", buf.Len()).Msg("Screenshot copied to clipboard")
	return nil
}

// CopyPath puts the newest history entry's path on the clipboard as text
type CopyPath struct {
	Write func(string) error
}

func NewCopyPath() *CopyPath {
	return &CopyPath{Write: clipboard.WriteAll}
}

func (*CopyPath) ID() string          { return "copy-path" }
func (*CopyPath) Name() string        { return "Copy path" }
func (*CopyPath) Description() string { return "Copies the saved screenshot's path to the clipboard" }

func (a *CopyPath) Handle(env Env, _ *image.RGBA) error {
	if env.History == nil {
		return errors.New("no history to take the path from")
	}
	entry, ok := env.History.Latest()
	if !ok || entry.Path == "" {
		return errors.New("no saved screenshot yet; list save-to-disk before copy-path")
	}

	if err := a.Write(entry.Path); err != nil {
		return fmt.Errorf("failed to copy path: %w", err)
	}

	logger.WithComponent("postcapture").Info().Str("path", entry.Path).Msg("Path copied to clipboard")
	return nil
}
