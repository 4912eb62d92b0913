package updater

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maa-se/internal/version"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func TestFullAssetNameAndOTAAssetName(t *testing.T) {
	assert.Equal(t, "MAA-v5.13.1-win-x64.zip", FullAssetName("v5.13.1", "win-x64.zip"))
	assert.Equal(t, "MAAComponent-OTA-v5.13.0_v5.13.1-win-x64.zip", OTAAssetName("v5.13.0", "v5.13.1", "win-x64.zip"))
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(src)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("../escape.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("pwned"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dst := t.TempDir()
	err = ExtractZip(src, dst)
	assert.Error(t, err)
}

func TestExtractZipExtractsNormalEntries(t *testing.T) {
	src := filepath.Join(t.TempDir(), "good.zip")
	f, err := os.Create(src)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("sub/file.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dst := t.TempDir()
	require.NoError(t, ExtractZip(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "sub", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestReporterPublishesCumulativeProgress(t *testing.T) {
	var snapshots []Progress
	r := NewReporter(100, 10*time.Millisecond, func(p Progress) {
		snapshots = append(snapshots, p)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	r.ReportChunk(40)
	r.ReportChunk(60)
	r.Close()
	<-done

	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, int64(100), last.Downloaded)
	assert.Equal(t, int64(100), last.Total)
}

func TestUpdaterConcurrentCallReturnsUpdating(t *testing.T) {
	u := New(discardLogger(), version.NewStore(t.TempDir()), nil)

	require.True(t, u.acquire())
	defer u.release()

	result, err := u.Update(context.Background(), version.Unknown, version.ChannelStable, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Updating, result.Kind)
}

func TestUpdaterResourceConcurrentCallReturnsUpdating(t *testing.T) {
	u := New(discardLogger(), version.NewStore(t.TempDir()), nil)

	require.True(t, u.acquire())
	defer u.release()

	result, err := u.UpdateResource(context.Background(), version.ResourceVersion{}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Updating, result.Kind)
}
