package job

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"image-labeler/internal/domain"
	"image-labeler/internal/repository/manifest"
	"image-labeler/internal/repository/output/local"
	"image-labeler/internal/usecase/render"
	"image-labeler/internal/usecase/render/operations"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) snapshot() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}

func newTestUsecase(t *testing.T) *Usecase {
	t.Helper()
	zlog.Init()
	logger := &zlog.Logger

	repo := local.NewFileRepository(t.TempDir())
	pipeline := render.NewPipeline(repo, logger, render.Options{PreviewMaxSide: 64}, manifest.NewCSVEncoder())
	runner := render.NewRunner(pipeline, 8, logger)
	return NewUsecase(runner, pipeline, repo, operations.NewFontResolver(nil, true), render.Limits{}, logger, time.Hour)
}

func backgroundPNG(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(160, 90, color.NRGBA{R: 200, G: 40, B: 40, A: 255})))
	return bytes.NewReader(buf.Bytes())
}

func testSpec(outputDir string) domain.JobSpec {
	return domain.JobSpec{
		OutputDir: outputDir,
		Format:    domain.FormatPNG,
		Manifest:  domain.ManifestCSV,
		Canvas:    domain.CanvasSize{Width: 1, Height: 0.5, Unit: domain.UnitInches, DPI: 100},
		Source:    domain.TextSource{Kind: domain.SourceNumbers, Start: 1, End: 3, Step: 1},
		FontSize:  20,
	}
}

func waitTerminal(t *testing.T, u *Usecase, id string) domain.JobStatus {
	t.Helper()
	var st domain.JobStatus
	require.Eventually(t, func() bool {
		var err error
		st, err = u.Status(context.Background(), id)
		return err == nil && st.State.Terminal()
	}, 10*time.Second, 10*time.Millisecond)
	return st
}

func TestUsecase_StartRunsToCompletion(t *testing.T) {
	u := newTestUsecase(t)
	out := t.TempDir()

	started, err := u.Start(context.Background(), testSpec(out), backgroundPNG(t))
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, domain.StateRunning, started.State)
	assert.Equal(t, 3, started.Total)

	st := waitTerminal(t, u, started.ID)
	assert.Equal(t, domain.StateCompleted, st.State)
	assert.Equal(t, 3, st.Processed)
	assert.NotNil(t, st.FinishedAt)
	assert.Empty(t, st.Error)
	assert.Zero(t, st.ETASeconds)

	for _, name := range []string{"created_1.png", "created_2.png", "created_3.png", "created_images_report.csv"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	var reported bool
	for _, line := range st.Logs {
		if strings.HasPrefix(line, "Report: ") {
			reported = true
		}
	}
	assert.True(t, reported)

	img, err := u.Preview(context.Background(), started.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 64)

	assert.ErrorIs(t, u.Cancel(context.Background(), started.ID), ErrJobFinished)
}

func TestUsecase_KeepsCallerID(t *testing.T) {
	u := newTestUsecase(t)
	spec := testSpec(t.TempDir())
	spec.ID = "batch-42"

	st, err := u.Start(context.Background(), spec, backgroundPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "batch-42", st.ID)
	waitTerminal(t, u, "batch-42")

	_, err = u.Start(context.Background(), spec, backgroundPNG(t))
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestUsecase_PublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	u := newTestUsecase(t).WithPublisher(pub)

	st, err := u.Start(context.Background(), testSpec(t.TempDir()), backgroundPNG(t))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events := pub.snapshot()
		return len(events) > 0 && events[len(events)-1].Type == domain.EventDone
	}, 10*time.Second, 10*time.Millisecond)

	for _, ev := range pub.snapshot() {
		assert.NotEqual(t, domain.EventPreview, ev.Type)
		assert.Equal(t, st.ID, ev.RunID)
	}
}

func TestUsecase_FailedRunReportsError(t *testing.T) {
	u := newTestUsecase(t)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	started, err := u.Start(context.Background(), testSpec(filepath.Join(blocker, "out")), backgroundPNG(t))
	require.NoError(t, err)

	st := waitTerminal(t, u, started.ID)
	assert.Equal(t, domain.StateFailed, st.State)
	assert.Contains(t, st.Error, render.ErrOutputUnwritable.Error())
}

func TestUsecase_RejectsBadRequests(t *testing.T) {
	u := newTestUsecase(t)
	ctx := context.Background()

	spec := testSpec(t.TempDir())
	spec.Format = "gif"
	_, err := u.Start(ctx, spec, backgroundPNG(t))
	assert.ErrorIs(t, err, ErrInvalidSpec)

	spec = testSpec(t.TempDir())
	spec.Color = domain.RGB{R: 300}
	_, err = u.Start(ctx, spec, backgroundPNG(t))
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = u.Start(ctx, testSpec(t.TempDir()), nil)
	assert.ErrorIs(t, err, ErrBackgroundNeeded)

	_, err = u.Start(ctx, testSpec(t.TempDir()), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, render.ErrBackgroundUnreadable)
}

func TestUsecase_RejectsOversizedJobs(t *testing.T) {
	u := newTestUsecase(t)
	ctx := context.Background()

	spec := testSpec(t.TempDir())
	spec.Canvas = domain.CanvasSize{Width: 1e7, Height: 1, Unit: domain.UnitInches, DPI: 300}
	_, err := u.Start(ctx, spec, backgroundPNG(t))
	assert.ErrorIs(t, err, ErrInvalidSpec)

	spec = testSpec(t.TempDir())
	spec.Canvas = domain.CanvasSize{Width: 100, Height: 100, Unit: domain.UnitInches, DPI: 300}
	_, err = u.Start(ctx, spec, backgroundPNG(t))
	assert.ErrorIs(t, err, render.ErrCanvasTooLarge)

	spec = testSpec(t.TempDir())
	spec.Source = domain.TextSource{Kind: domain.SourceNumbers, Start: 0, End: 2_000_000_000, Step: 1}
	_, err = u.Start(ctx, spec, backgroundPNG(t))
	assert.ErrorIs(t, err, render.ErrTooManyValues)

	spec = testSpec(t.TempDir())
	spec.Source = domain.TextSource{Kind: domain.SourceNumbers, Start: math.MaxInt - 1, End: math.MaxInt, Step: 1}
	st, err := u.Start(ctx, spec, backgroundPNG(t))
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	waitTerminal(t, u, st.ID)
}

func TestUsecase_OpenFile(t *testing.T) {
	u := newTestUsecase(t)
	ctx := context.Background()
	out := t.TempDir()

	started, err := u.Start(ctx, testSpec(out), backgroundPNG(t))
	require.NoError(t, err)
	waitTerminal(t, u, started.ID)

	rc, contentType, err := u.OpenFile(ctx, started.ID, "created_2.png")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", contentType)
	img, err := png.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	rc, contentType, err = u.OpenFile(ctx, started.ID, "created_images_report.csv")
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "text/csv", contentType)

	for _, name := range []string{"", ".", "..", "../created_1.png", "sub/created_1.png", `sub\created_1.png`, "/etc/passwd"} {
		_, _, err := u.OpenFile(ctx, started.ID, name)
		assert.ErrorIs(t, err, ErrInvalidFileName, name)
	}

	_, _, err = u.OpenFile(ctx, started.ID, "created_9.png")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = u.OpenFile(ctx, "nope", "created_1.png")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUsecase_UnknownJob(t *testing.T) {
	u := newTestUsecase(t)
	ctx := context.Background()

	_, err := u.Status(ctx, "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, u.Cancel(ctx, "nope"), ErrJobNotFound)
	_, err = u.Preview(ctx, "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUsecase_RenderPreview(t *testing.T) {
	u := newTestUsecase(t)
	out := t.TempDir()

	img, err := u.RenderPreview(context.Background(), testSpec(out), backgroundPNG(t))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "preview saves nothing")
}
