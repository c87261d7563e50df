package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csspublisher/internal/finisher"
	"git.home.luguber.info/inful/csspublisher/internal/stylesheet"
)

type fakeAPI struct {
	mu          sync.Mutex
	updateErr   error
	uploadErrs  map[string]error
	stylesheets []string
	reasons     []string
	uploads     []AssetImage
}

func (f *fakeAPI) UpdateStylesheet(_ context.Context, _, css, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stylesheets = append(f.stylesheets, css)
	f.reasons = append(f.reasons, reason)
	return f.updateErr
}

func (f *fakeAPI) UploadImage(_ context.Context, _ string, img AssetImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, img)
	return f.uploadErrs[img.Name]
}

func (f *fakeAPI) uploadedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.uploads))
	for _, u := range f.uploads {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	return names
}

func finishedDoc(t *testing.T) *finisher.PublishableDocument {
	t.Helper()
	doc, err := finisher.New().Finish(&stylesheet.CompiledDocument{CSS: "a { display: block; }"}, "example")
	require.NoError(t, err)
	return doc
}

func writeAssets(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("img"), 0o600))
	}
	return dir
}

func TestClassify(t *testing.T) {
	cases := map[string]ImageKind{
		"icon.png":        KindPNG,
		"icon.PNG":        KindJPEG,
		"icon.jpg":        KindJPEG,
		"icon.gif":        KindJPEG,
		"icon":            KindJPEG,
		"archive.png.bak": KindJPEG,
		".png":            KindJPEG,
		".logo.png":       KindPNG,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestDiscoverAssets(t *testing.T) {
	dir := writeAssets(t, "b.jpg", "a.png", "c")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "d.png"), []byte("x"), 0o600))

	assets, err := DiscoverAssets(dir)
	require.NoError(t, err)
	assert.Equal(t, []AssetImage{
		{Name: "a", FilePath: filepath.Join(dir, "a.png"), Kind: KindPNG},
		{Name: "b", FilePath: filepath.Join(dir, "b.jpg"), Kind: KindJPEG},
		{Name: "c", FilePath: filepath.Join(dir, "c"), Kind: KindJPEG},
	}, assets)
}

func TestDiscoverAssets_DotfilesKeepTheirName(t *testing.T) {
	dir := writeAssets(t, ".gitkeep", ".logo.png", "a.png")

	assets, err := DiscoverAssets(dir)
	require.NoError(t, err)
	assert.Equal(t, []AssetImage{
		{Name: ".gitkeep", FilePath: filepath.Join(dir, ".gitkeep"), Kind: KindJPEG},
		{Name: ".logo", FilePath: filepath.Join(dir, ".logo.png"), Kind: KindPNG},
		{Name: "a", FilePath: filepath.Join(dir, "a.png"), Kind: KindPNG},
	}, assets)
	for _, a := range assets {
		assert.NotEmpty(t, a.Name)
	}
}

func TestDiscoverAssets_MissingOrUnset(t *testing.T) {
	assets, err := DiscoverAssets(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	assert.Empty(t, assets)

	assets, err = DiscoverAssets("")
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestPublish_UploadsAllAssetsAfterAcceptance(t *testing.T) {
	api := &fakeAPI{}
	dir := writeAssets(t, "logo.png", "banner.jpg", "bg.jpeg")
	doc := finishedDoc(t)

	err := NewPublisher(api, "example").Publish(context.Background(), doc, dir, "update from main")
	require.NoError(t, err)

	require.Len(t, api.stylesheets, 1)
	assert.Equal(t, doc.Text(), api.stylesheets[0])
	assert.Equal(t, []string{"update from main"}, api.reasons)
	assert.Equal(t, []string{"banner", "bg", "logo"}, api.uploadedNames())
	for _, u := range api.uploads {
		if u.Name == "logo" {
			assert.Equal(t, KindPNG, u.Kind)
		} else {
			assert.Equal(t, KindJPEG, u.Kind)
		}
	}
}

func TestPublish_RejectedSkipsAssets(t *testing.T) {
	api := &fakeAPI{updateErr: errors.New("BAD_CSS: invalid property")}
	dir := writeAssets(t, "logo.png")

	err := NewPublisher(api, "example").Publish(context.Background(), finishedDoc(t), dir, "r")
	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "example", rej.Destination)
	assert.ErrorIs(t, err, api.updateErr)
	assert.Empty(t, api.uploadedNames())
}

func TestPublish_CancellationIsNotARejection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeAPI{updateErr: errors.New(`Post "https://oauth.reddit.com/r/example/api/subreddit_stylesheet": context canceled`)}
	dir := writeAssets(t, "logo.png")

	err := NewPublisher(api, "example").Publish(ctx, finishedDoc(t), dir, "r")
	require.Error(t, err)
	var rej *RejectedError
	assert.False(t, errors.As(err, &rej))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.uploadedNames())

	api = &fakeAPI{updateErr: context.DeadlineExceeded}
	err = NewPublisher(api, "example").Publish(context.Background(), finishedDoc(t), dir, "r")
	assert.False(t, errors.As(err, &rej))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublish_EmptyAssetDirUploadsNothing(t *testing.T) {
	api := &fakeAPI{}
	dir := writeAssets(t)

	err := NewPublisher(api, "example").Publish(context.Background(), finishedDoc(t), dir, "r")
	require.NoError(t, err)
	assert.Len(t, api.stylesheets, 1)
	assert.Empty(t, api.uploadedNames())
}

func TestPublish_AssetFailureStillAttemptsAll(t *testing.T) {
	boom := errors.New("413 too large")
	api := &fakeAPI{uploadErrs: map[string]error{"huge": boom}}
	dir := writeAssets(t, "a.png", "huge.png", "z.jpg")

	err := NewPublisher(api, "example").Publish(context.Background(), finishedDoc(t), dir, "r")
	var aerr *AssetUploadError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "huge", aerr.Asset.Name)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "huge", "z"}, api.uploadedNames())
	assert.Len(t, api.stylesheets, 1, "stylesheet stays published")
}

type panicAPI struct{ fakeAPI }

func (p *panicAPI) UploadImage(context.Context, string, AssetImage) error { panic("boom") }

func TestPublish_UploadPanicIsContained(t *testing.T) {
	dir := writeAssets(t, "a.png")
	err := NewPublisher(&panicAPI{}, "example").Publish(context.Background(), finishedDoc(t), dir, "r")
	var aerr *AssetUploadError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, err.Error(), "panic: boom")
}
