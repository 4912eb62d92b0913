// Package updater implements the Update Orchestrator: version checks,
// archive fetch with OTA-then-full fallback, platform-selected
// decompression, and persistence of the resulting version records.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"maa-se/internal/version"
)

// defaultReportInterval is used when Updater.ProgressInterval is zero.
const defaultReportInterval = 250 * time.Millisecond

const (
	versionSummaryURL  = "https://ota.maa.plus/MaaAssistantArknights/api/version/summary.json"
	resourceSummaryURL = "https://ota.maa.plus/MaaAssistantArknights/MaaAssistantArknights/resource/version.json"
	resourceArchiveZip = "https://github.com/MaaAssistantArknights/MaaResource/archive/refs/heads/main.zip"
	resourceArchiveTar = "https://github.com/MaaAssistantArknights/MaaResource/archive/refs/heads/main.tar.gz"
	resourceRepoDir    = "MaaResource-main"
)

// Result is the outcome of an update() or update_resource() call.
type Result struct {
	Kind            ResultKind
	NewClient       version.ClientVersion
	NewResource     version.ResourceVersion
}

// ResultKind discriminates Result's payload.
type ResultKind int

const (
	Updating ResultKind = iota
	AlreadyUpdated
	ClientSuccess
	ResourceSuccess
)

func (k ResultKind) String() string {
	switch k {
	case Updating:
		return "Updating"
	case AlreadyUpdated:
		return "AlreadyUpdated"
	case ClientSuccess:
		return "ClientSuccess"
	case ResourceSuccess:
		return "ResourceSuccess"
	default:
		return "Unknown"
	}
}

// versionSummary mirrors the remote version/summary.json document: one
// {version, detail} pair per channel.
type versionSummary struct {
	Alpha  channelSummary `json:"alpha"`
	Beta   channelSummary `json:"beta"`
	Stable channelSummary `json:"stable"`
}

type channelSummary struct {
	Version string `json:"version"`
	Detail  string `json:"detail"`
}

func (s versionSummary) forChannel(ch version.Channel) channelSummary {
	switch ch {
	case version.ChannelNightly:
		return s.Alpha
	case version.ChannelBeta:
		return s.Beta
	default:
		return s.Stable
	}
}

// assetDetails mirrors the remote detail document: a flat asset list.
type assetDetails struct {
	Assets []asset `json:"assets"`
}

type asset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"browser_download_url"`
}

func (d assetDetails) find(name string) (asset, bool) {
	for _, a := range d.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return asset{}, false
}

// resourceSummary mirrors the remote resource/version.json document.
type resourceSummary struct {
	LastUpdated string `json:"last_updated"`
}

// ReloadEngine is invoked after a successful client update so the
// Engine Session Manager reloads the native library from its new
// on-disk location.
type ReloadEngine func() error

// Updater guards update()/update_resource() behind a single atomic
// flag: a concurrent call observes Updating and returns immediately
// without side effects. The flag is released on every exit path via
// defer, including panics.
type Updater struct {
	logger *slog.Logger
	store  *version.Store
	reload ReloadEngine

	updating atomic.Bool

	// ProgressInterval/ProgressSink wire a Reporter into each download;
	// nil Sink means progress is tracked but never published. Zero
	// ProgressInterval falls back to defaultReportInterval.
	ProgressInterval time.Duration
	ProgressSink     ProgressSink

	// limiter optionally caps download throughput, set through
	// SetRateLimit from the Command Surface's settings. Held behind an
	// atomic pointer since it can be changed mid-download from another
	// goroutine.
	limiter atomic.Pointer[rate.Limiter]
}

// New constructs an Updater. store persists version records; reload is
// called after a successful client update.
func New(logger *slog.Logger, store *version.Store, reload ReloadEngine) *Updater {
	return &Updater{logger: logger, store: store, reload: reload}
}

// SetRateLimit caps subsequent downloads' chunk admission rate to
// bytesPerSec. bytesPerSec <= 0 clears the cap. Safe to call while a
// download is in progress; each download reads the limiter once when it
// starts, so a download already running keeps the cap it started with.
func (u *Updater) SetRateLimit(bytesPerSec int64) {
	if bytesPerSec <= 0 {
		u.limiter.Store(nil)
		return
	}
	// The burst is at least one downloadFile read buffer (64 KiB), so
	// WaitN never rejects a chunk as larger than the burst.
	burst := int(bytesPerSec)
	if burst < 64*1024 {
		burst = 64 * 1024
	}
	u.limiter.Store(rate.NewLimiter(rate.Limit(bytesPerSec), burst))
}

func (u *Updater) acquire() bool {
	return u.updating.CompareAndSwap(false, true)
}

func (u *Updater) release() {
	u.updating.Store(false)
}

// Update runs the client update algorithm from current toward target,
// writing the archive contents into dst on success.
func (u *Updater) Update(ctx context.Context, current version.ClientVersion, target version.Channel, dst string) (Result, error) {
	if !u.acquire() {
		return Result{Kind: Updating}, nil
	}
	defer u.release()

	result, err := u.updateImpl(ctx, current, target, dst)
	if err != nil {
		u.logger.Error("client_update_failed", "error", err)
		return Result{}, err
	}
	return result, nil
}

func (u *Updater) updateImpl(ctx context.Context, current version.ClientVersion, target version.Channel, dst string) (Result, error) {
	var summary versionSummary
	if err := fetchJSON(ctx, versionSummaryURL, &summary); err != nil {
		return Result{}, fmt.Errorf("updater: fetch version summary: %w", err)
	}
	channel := summary.forChannel(target)

	if !current.IsUnknown() {
		targetVersion := version.ClientVersion{Channel: target, Raw: channel.Version}
		atLeast, err := current.AtLeast(targetVersion)
		if err != nil {
			return Result{}, fmt.Errorf("updater: compare versions: %w", err)
		}
		if atLeast {
			return Result{Kind: AlreadyUpdated}, nil
		}
	}

	var details assetDetails
	if err := fetchJSON(ctx, channel.Detail, &details); err != nil {
		return Result{}, fmt.Errorf("updater: fetch asset details: %w", err)
	}

	suffix, err := Suffix()
	if err != nil {
		return Result{}, err
	}

	newVersion := version.ClientVersion{Channel: target, Raw: channel.Version}

	if SupportsOTA() && !current.IsUnknown() {
		if err := u.tryOTA(ctx, current, channel.Version, suffix, details, dst); err != nil {
			u.logger.Warn("ota_update_failed_falling_back", "error", err)
		} else {
			return u.finishClientUpdate(newVersion)
		}
	}

	fullName := FullAssetName(channel.Version, suffix)
	fullAsset, ok := details.find(fullName)
	if !ok {
		return Result{}, fmt.Errorf("updater: full archive asset %q not found", fullName)
	}
	if err := u.downloadAndExtract(ctx, fullAsset, dst, suffix); err != nil {
		return Result{}, fmt.Errorf("updater: full update: %w", err)
	}

	return u.finishClientUpdate(newVersion)
}

func (u *Updater) tryOTA(ctx context.Context, current version.ClientVersion, targetVersion, suffix string, details assetDetails, dst string) error {
	name := OTAAssetName(current.Raw, targetVersion, suffix)
	otaAsset, ok := details.find(name)
	if !ok {
		return fmt.Errorf("updater: ota asset %q not found", name)
	}
	return u.downloadAndExtract(ctx, otaAsset, dst, suffix)
}

func (u *Updater) downloadAndExtract(ctx context.Context, a asset, dst, suffix string) error {
	if err := checkDiskSpace(dst, a.Size); err != nil {
		return err
	}

	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("maa-se-dl-%d.tmp", a.Size))
	_ = os.Remove(tmpFile)
	defer os.Remove(tmpFile)

	interval := u.ProgressInterval
	if interval <= 0 {
		interval = defaultReportInterval
	}
	reporter := NewReporter(a.Size, interval, u.ProgressSink)
	reporter.Limiter = u.limiter.Load()
	go reporter.Run(ctx)
	defer reporter.Close()

	if err := downloadFile(ctx, a.DownloadURL, tmpFile, reporter.ReportChunk); err != nil {
		return err
	}

	if IsArchiveZip(suffix) {
		return ExtractZip(tmpFile, dst)
	}
	return ExtractTarGz(tmpFile, dst)
}

func (u *Updater) finishClientUpdate(newVersion version.ClientVersion) (Result, error) {
	if err := u.store.SaveClient(newVersion); err != nil {
		return Result{}, fmt.Errorf("updater: persist client version: %w", err)
	}
	if u.reload != nil {
		if err := u.reload(); err != nil {
			u.logger.Error("engine_reload_after_update_failed", "error", err)
		}
	}
	return Result{Kind: ClientSuccess, NewClient: newVersion}, nil
}

// UpdateResource runs the resource update algorithm, moving the fetched
// repository's cache/ and resource/ directories into dst.
func (u *Updater) UpdateResource(ctx context.Context, current version.ResourceVersion, dst string) (Result, error) {
	if !u.acquire() {
		return Result{Kind: Updating}, nil
	}
	defer u.release()

	result, err := u.updateResourceImpl(ctx, current, dst)
	if err != nil {
		u.logger.Error("resource_update_failed", "error", err)
		return Result{}, err
	}
	return result, nil
}

func (u *Updater) updateResourceImpl(ctx context.Context, current version.ResourceVersion, dst string) (Result, error) {
	var summary resourceSummary
	if err := fetchJSON(ctx, resourceSummaryURL, &summary); err != nil {
		return Result{}, fmt.Errorf("updater: fetch resource summary: %w", err)
	}

	latest := version.ResourceVersion{LastUpdated: summary.LastUpdated}
	if current.Equal(latest) {
		return Result{Kind: AlreadyUpdated}, nil
	}
	if current.LastUpdated != "" {
		before, err := current.Before(latest)
		if err != nil {
			return Result{}, fmt.Errorf("updater: compare resource timestamps: %w", err)
		}
		if !before {
			return Result{Kind: AlreadyUpdated}, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "maa-se-resource-*")
	if err != nil {
		return Result{}, fmt.Errorf("updater: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, "resource-archive")
	archiveURL := resourceArchiveTar
	zip := false
	if suffix, _ := Suffix(); IsArchiveZip(suffix) {
		archiveURL = resourceArchiveZip
		zip = true
	}

	interval := u.ProgressInterval
	if interval <= 0 {
		interval = defaultReportInterval
	}
	// The resource archive's size is not known in advance, so Total is 0.
	reporter := NewReporter(0, interval, u.ProgressSink)
	reporter.Limiter = u.limiter.Load()
	go reporter.Run(ctx)
	defer reporter.Close()

	if err := downloadFile(ctx, archiveURL, archivePath, reporter.ReportChunk); err != nil {
		return Result{}, fmt.Errorf("updater: download resource archive: %w", err)
	}

	if zip {
		err = ExtractZip(archivePath, tmpDir)
	} else {
		err = ExtractTarGz(archivePath, tmpDir)
	}
	if err != nil {
		return Result{}, fmt.Errorf("updater: extract resource archive: %w", err)
	}

	if err := moveResourceDirs(tmpDir, dst); err != nil {
		return Result{}, err
	}

	if err := u.store.SaveResource(latest); err != nil {
		return Result{}, fmt.Errorf("updater: persist resource version: %w", err)
	}
	return Result{Kind: ResourceSuccess, NewResource: latest}, nil
}

// moveResourceDirs moves <tmp>/MaaResource-main/{cache,resource} into
// dst concurrently, overwriting any existing directories. Both moves
// are awaited even if one fails, per §4.3 step 4.
func moveResourceDirs(tmpDir, dst string) error {
	repo := filepath.Join(tmpDir, resourceRepoDir)
	type outcome struct {
		name string
		err  error
	}
	results := make(chan outcome, 2)
	for _, name := range []string{"cache", "resource"} {
		go func(name string) {
			src := filepath.Join(repo, name)
			target := filepath.Join(dst, name)
			results <- outcome{name: name, err: moveDirOverwrite(src, target)}
		}(name)
	}

	var firstErr error
	for i := 0; i < 2; i++ {
		o := <-results
		if o.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("updater: move %s: %w", o.name, o.err)
		}
	}
	return firstErr
}

func moveDirOverwrite(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return err
	}
	return nil
}
