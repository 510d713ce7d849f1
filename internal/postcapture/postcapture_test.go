package postcapture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/ShotMark/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAction struct {
	id    string
	calls *[]string
	err   error
}

func (a recordingAction) ID() string          { return a.id }
func (a recordingAction) Name() string        { return a.id }
func (a recordingAction) Description() string { return "records calls" }
func (a recordingAction) Handle(Env, *image.RGBA) error {
	*a.calls = append(*a.calls, a.id)
	return a.err
}

type fakeNotifier struct {
	summary, body string
	err           error
}

func (f *fakeNotifier) Notify(summary, body string) (uint32, error) {
	f.summary, f.body = summary, body
	return 7, f.err
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 1, color.RGBA{200, 10, 20, 255})
	return img
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
}

func TestRegistryRunOrderAndSkips(t *testing.T) {
	var calls []string
	r := NewRegistry(
		recordingAction{id: "a", calls: &calls},
		recordingAction{id: "b", calls: &calls, err: errors.New("boom")},
		recordingAction{id: "c", calls: &calls},
	)

	ok := r.Run([]string{"c", "missing", "b", "a", "c"}, Env{}, testImage())

	assert.Equal(t, []string{"c", "b", "a"}, calls)
	assert.Equal(t, 2, ok)
}

func TestRegistryLookupAndAll(t *testing.T) {
	var calls []string
	r := NewRegistry(recordingAction{id: "x", calls: &calls}, recordingAction{id: "y", calls: &calls})
	r.Register(recordingAction{id: "x", calls: &calls})

	_, ok := r.Lookup("x")
	assert.True(t, ok)
	_, ok = r.Lookup("z")
	assert.False(t, ok)

	var ids []string
	for _, a := range r.All() {
		ids = append(ids, a.ID())
	}
	assert.Equal(t, []string{"x", "y"}, ids)
}

func TestDefaultRegistryIDs(t *testing.T) {
	var ids []string
	for _, a := range DefaultRegistry(t.TempDir()).All() {
		ids = append(ids, a.ID())
		assert.NotEmpty(t, a.Name())
		assert.NotEmpty(t, a.Description())
	}
	assert.Equal(t, []string{"save-to-disk", "save-to-pdf", "copy-to-clipboard", "copy-path", "notify"}, ids)
}

func TestSaveToDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	action := &SaveToDisk{Dir: dir, Now: fixedNow}
	model := history.NewModel()

	require.NoError(t, action.Handle(Env{History: model}, testImage()))

	want := filepath.Join(dir, "screenshot_2024-03-09T14:30:00Z.png")
	f, err := os.Open(want)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{200, 10, 20}, []uint32{r >> 8, g >> 8, b >> 8})

	latest, ok := model.Latest()
	require.True(t, ok)
	assert.Equal(t, want, latest.Path)
	assert.True(t, latest.Time.Equal(fixedNow()))
}

func TestSaveToPDF(t *testing.T) {
	dir := t.TempDir()
	action := &SaveToPDF{Dir: dir, Now: fixedNow}

	require.NoError(t, action.Handle(Env{}, testImage()))

	data, err := os.ReadFile(filepath.Join(dir, "screenshot_2024-03-09T14:30:00Z.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestCopyToClipboardPipesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clip.png")
	action := &CopyToClipboard{Command: []string{"sh", "-c", "cat > " + out}}

	require.NoError(t, action.Handle(Env{}, testImage()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestCopyToClipboardCommandFailure(t *testing.T) {
	action := &CopyToClipboard{Command: []string{"sh", "-c", "echo nope >&2; exit 3"}}
	err := action.Handle(Env{}, testImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestCopyPath(t *testing.T) {
	var copied string
	action := &CopyPath{Write: func(s string) error { copied = s; return nil }}

	assert.Error(t, action.Handle(Env{}, testImage()))
	assert.Error(t, action.Handle(Env{History: history.NewModel()}, testImage()))

	model := history.NewModel()
	model.Add(history.Entry{Path: "/tmp/shot.png"})
	require.NoError(t, action.Handle(Env{History: model}, testImage()))
	assert.Equal(t, "/tmp/shot.png", copied)
}

func TestNotify(t *testing.T) {
	n := &fakeNotifier{}
	action := &Notify{Notifier: n}

	model := history.NewModel()
	model.Add(history.Entry{Path: "/tmp/shot.png"})

	require.NoError(t, action.Handle(Env{History: model}, testImage()))
	assert.Equal(t, "Screenshot taken", n.summary)
	assert.Equal(t, "4x3, saved to /tmp/shot.png", n.body)

	n.err = errors.New("no daemon")
	assert.Error(t, action.Handle(Env{}, testImage()))
	assert.Equal(t, "4x3", n.body)
}

func TestSaveThenCopyPathThroughRegistry(t *testing.T) {
	var copied string
	dir := t.TempDir()
	r := NewRegistry(
		&SaveToDisk{Dir: dir, Now: fixedNow},
		&CopyPath{Write: func(s string) error { copied = s; return nil }},
	)

	n := r.Run([]string{"save-to-disk", "copy-path"}, Env{History: history.NewModel()}, testImage())
	assert.Equal(t, 2, n)
	assert.Equal(t, filepath.Join(dir, "screenshot_2024-03-09T14:30:00Z.png"), copied)
}
