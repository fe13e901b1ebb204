package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatcher(dir string, opts ...Option) *Watcher {
	opts = append([]Option{
		WithPollInterval(20 * time.Millisecond),
		WithSettleDelay(100 * time.Millisecond),
		WithNotify(false),
	}, opts...)
	return New(dir, opts...)
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestWatch_AcceptsStableFile(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		writeFile(t, dir, "IMG_0001.JPG", []byte("photo"))
	}()

	res := w.Watch(context.Background(), base, 1, 2*time.Second)

	require.Len(t, res.Files, 1)
	assert.False(t, res.TimedOut)
	assert.True(t, res.Complete())
	assert.Equal(t, "IMG_0001.JPG", res.Files[0].Name)
	assert.Equal(t, int64(5), res.Files[0].Size)
	assert.Equal(t, filepath.Join(dir, "IMG_0001.JPG"), res.Files[0].Path)
}

func TestWatch_IgnoresBaselineFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.jpg", []byte("old"))

	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, base.Len())
	assert.True(t, base.Contains("old.jpg"))

	res := w.Watch(context.Background(), base, 1, 300*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Empty(t, res.Files)
}

func TestWatch_GrowingFileAcceptedOnlyOnceStable(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir, WithSettleDelay(200*time.Millisecond))
	base, err := w.Snapshot()
	require.NoError(t, err)

	path := filepath.Join(dir, "grow.jpg")
	done := make(chan struct{})
	go func() {
		defer close(done)
		f, err := os.Create(path)
		if err != nil {
			return
		}
		defer f.Close()
		for i := 0; i < 10; i++ {
			_, _ = f.Write([]byte("chunk"))
			_ = f.Sync()
			time.Sleep(40 * time.Millisecond)
		}
	}()

	res := w.Watch(context.Background(), base, 1, 3*time.Second)
	<-done

	require.Len(t, res.Files, 1)
	assert.Equal(t, int64(50), res.Files[0].Size)
}

func TestWatch_TimeoutReturnsPartialResult(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "a.jpg", []byte("aaaa"))
	writeFile(t, dir, "b.jpg", []byte("bbbb"))

	start := time.Now()
	res := w.Watch(context.Background(), base, 4, 2*time.Second)
	elapsed := time.Since(start)

	assert.True(t, res.TimedOut)
	assert.False(t, res.Complete())
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg")}, res.Paths())
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestWatch_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "notes.txt", []byte("text"))
	writeFile(t, dir, "raw.CR3", []byte("raw"))
	writeFile(t, dir, "shot.PNG", []byte("png"))

	res := w.Watch(context.Background(), base, 2, 500*time.Millisecond)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "shot.PNG", res.Files[0].Name)
}

func TestWatch_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir, WithExtensions("cr3"))
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "raw.CR3", []byte("raw"))
	writeFile(t, dir, "shot.jpg", []byte("jpg"))

	res := w.Watch(context.Background(), base, 2, 500*time.Millisecond)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "raw.CR3", res.Files[0].Name)
}

func TestWatch_EmptyFileNeverAccepted(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "empty.jpg", nil)

	res := w.Watch(context.Background(), base, 1, 400*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Empty(t, res.Files)
}

func TestWatch_SamePollOrderIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "B.jpg", []byte("b"))
	writeFile(t, dir, "a.jpg", []byte("a"))
	writeFile(t, dir, "C.jpg", []byte("c"))

	res := w.Watch(context.Background(), base, 3, 2*time.Second)

	require.Len(t, res.Files, 3)
	assert.Equal(t, "a.jpg", res.Files[0].Name)
	assert.Equal(t, "B.jpg", res.Files[1].Name)
	assert.Equal(t, "C.jpg", res.Files[2].Name)
}

func TestWatch_DetectionOrderAcrossPolls(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	go func() {
		writeFile(t, dir, "z.jpg", []byte("first"))
		time.Sleep(300 * time.Millisecond)
		writeFile(t, dir, "a.jpg", []byte("second"))
	}()

	res := w.Watch(context.Background(), base, 2, 3*time.Second)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "z.jpg", res.Files[0].Name)
	assert.Equal(t, "a.jpg", res.Files[1].Name)
}

func TestWatch_StopsAtExpectedCount(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "1.jpg", []byte("1"))
	writeFile(t, dir, "2.jpg", []byte("2"))
	writeFile(t, dir, "3.jpg", []byte("3"))

	res := w.Watch(context.Background(), base, 1, 2*time.Second)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "1.jpg", res.Files[0].Name)
}

func TestWatch_VanishedCandidateIsDropped(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir, WithSettleDelay(300*time.Millisecond))
	base, err := w.Snapshot()
	require.NoError(t, err)

	go func() {
		writeFile(t, dir, "tmp.jpg", []byte("partial"))
		time.Sleep(80 * time.Millisecond)
		_ = os.Remove(filepath.Join(dir, "tmp.jpg"))
	}()

	res := w.Watch(context.Background(), base, 1, 700*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Empty(t, res.Files)
}

func TestWatch_Canceled(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	res := w.Watch(ctx, base, 1, 5*time.Second)

	assert.True(t, res.Canceled)
	assert.False(t, res.TimedOut)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWatch_WithNotifications(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir, WithNotify(true), WithPollInterval(250*time.Millisecond))
	base, err := w.Snapshot()
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		writeFile(t, dir, "n.jpg", []byte("notify"))
	}()

	res := w.Watch(context.Background(), base, 1, 3*time.Second)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "n.jpg", res.Files[0].Name)
}

func TestSnapshot_MissingDirectory(t *testing.T) {
	w := fastWatcher(filepath.Join(t.TempDir(), "not-yet"))
	base, err := w.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, base.Len())
}

func TestWatch_ZeroExpected(t *testing.T) {
	w := fastWatcher(t.TempDir())
	res := w.Watch(context.Background(), Baseline{}, 0, time.Second)
	assert.Empty(t, res.Files)
	assert.True(t, res.Complete())
}

func TestWatchEach_CallbackPerFileAndStop(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "a.jpg", []byte("a"))
	writeFile(t, dir, "b.jpg", []byte("b"))

	var seen []string
	stop := assert.AnError
	res, err := w.WatchEach(context.Background(), base, 2, 2*time.Second, func(f File) error {
		seen = append(seen, f.Name)
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a.jpg"}, seen)
	assert.Len(t, res.Files, 1)
}

func TestBaseline_With(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", []byte("a"))
	w := fastWatcher(dir)
	base, err := w.Snapshot()
	require.NoError(t, err)

	ext := base.With("b.jpg")

	assert.True(t, ext.Contains("a.jpg"))
	assert.True(t, ext.Contains("b.jpg"))
	assert.False(t, base.Contains("b.jpg"))
}
