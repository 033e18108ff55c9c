package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bazaar-items/internal/cleaner"
	"bazaar-items/internal/exporter"
	"bazaar-items/internal/imagesync"
	"bazaar-items/lib/configutil"
	"bazaar-items/lib/sqliteutil"
	"bazaar-items/lib/wiki"
)

type WikiConfig struct {
	BaseUrl        string `json:"base_url"`
	UserAgent      string `json:"user_agent"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// requests per second
	RateLimit float64       `json:"rate_limit"`
	Query     wiki.AskQuery `json:"query"`
	// number of Special:Ask pages of Query.Limit rows to request
	Pages int `json:"pages"`
}

func (c WikiConfig) ClientOptions() wiki.ClientOptions {
	return wiki.ClientOptions{
		BaseUrl:   c.BaseUrl,
		UserAgent: c.UserAgent,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
		RateLimit: c.RateLimit,
	}
}

type ExportConfig struct {
	JSON   []string                `json:"json"`
	SQLite []exporter.SQLiteTarget `json:"sqlite"`
}

type ImagesConfig struct {
	// the first directory is where existing images are looked up
	Dirs []string `json:"dirs"`
	// the image path prefix written by rewrite-paths
	AssetsDir      string `json:"assets_dir"`
	DefaultExt     string `json:"default_ext"`
	DelayMs        int    `json:"delay_ms"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	ProgressEvery  int    `json:"progress_every"`
	// the items json images are synced for, defaults to the last export path
	Source string `json:"source"`
}

func (c ImagesConfig) Options() imagesync.Options {
	return imagesync.Options{
		Dirs:          c.Dirs,
		DefaultExt:    c.DefaultExt,
		Delay:         time.Duration(c.DelayMs) * time.Millisecond,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
		ProgressEvery: c.ProgressEvery,
	}
}

type ScheduleConfig struct {
	// standard 5 field cron expression
	Spec string `json:"spec"`
	// also sync images after every scrape
	Images bool `json:"images"`
	// seconds between process stat samples
	PerfStatsSeconds int `json:"perf_stats_seconds"`
	// IANA zone the cron expression is evaluated in, empty means local time
	Timezone string `json:"timezone"`
}

func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type CacheConfig struct {
	// badger directory, empty disables the page cache
	Dir        string `json:"dir"`
	TTLMinutes int    `json:"ttl_minutes"`
}

type Config struct {
	Wiki             WikiConfig      `json:"wiki"`
	WorkDir          string          `json:"work_dir"`
	KeepIntermediate bool            `json:"keep_intermediate"`
	Clean            cleaner.Options `json:"clean"`
	Export           ExportConfig    `json:"export"`
	Images           ImagesConfig    `json:"images"`
	Schedule         ScheduleConfig  `json:"schedule"`
	Cache            CacheConfig     `json:"cache"`
	// when set, http exchanges are dumped here in debug mode
	DumpDir string `json:"dump_dir"`
}

// ImagesSource returns the items json the image commands read.
func (c Config) ImagesSource() string {
	if c.Images.Source != "" {
		return c.Images.Source
	}
	if len(c.Export.JSON) == 0 {
		return ""
	}
	return c.Export.JSON[len(c.Export.JSON)-1]
}

func Default() Config {
	imageOpts := imagesync.DefaultOptions()
	return Config{
		Wiki: WikiConfig{
			BaseUrl:        "https://brightershoreswiki.org",
			TimeoutSeconds: 30,
			RateLimit:      2,
			Query:          wiki.DefaultItemQuery(),
			Pages:          5,
		},
		WorkDir: ".work",
		Clean:   cleaner.DefaultOptions(),
		Export: ExportConfig{
			JSON: []string{
				"bazaar-client/src/data/items.json",
				"bazaar-server/data/items.json",
			},
			SQLite: []exporter.SQLiteTarget{
				{
					DB:              sqliteutil.Config{File: "bazaar-server/data/items.db"},
					Table:           "items",
					AutoincrementID: true,
				},
			},
		},
		Images: ImagesConfig{
			Dirs: []string{
				"bazaar-client/public/assets/items",
				"bazaar-client/build/assets/items",
			},
			AssetsDir:      "assets/items",
			DefaultExt:     imageOpts.DefaultExt,
			DelayMs:        int(imageOpts.Delay / time.Millisecond),
			TimeoutSeconds: int(imageOpts.Timeout / time.Second),
			ProgressEvery:  imageOpts.ProgressEvery,
		},
		Schedule: ScheduleConfig{
			Spec:             "0 */6 * * *",
			PerfStatsSeconds: 30,
		},
		Cache: CacheConfig{
			TTLMinutes: 60,
		},
	}
}

// Load reads the config file at path (and its .local override) on top of
// Default. Fields left out keep their default, a list given explicitly
// replaces the default one even when empty. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	layers, err := configutil.ReadLayers[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	for _, layer := range layers {
		err = configutil.Overlay(&cfg, layer)
		if err != nil {
			return Config{}, fmt.Errorf("apply %s: %w", path, err)
		}
	}
	return cfg, nil
}
