package imagesync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"bazaar-items/internal/exporter"
	"bazaar-items/internal/items"
	"bazaar-items/lib/textutil"
)

// LocalImagePath is the path an item's image is served from once
// downloaded, relative to the client's public directory.
func LocalImagePath(assetsDir string, item items.Item, defaultExt string) string {
	return path.Join(assetsDir, textutil.SafeFilename(item.Name)+Extension(item.Image, defaultExt))
}

// RewritePaths points the image of every item in the json file at jsonPath
// to its local copy under assetsDir. The original file is kept as
// <jsonPath>.bak the first time, later runs leave the backup alone.
func RewritePaths(ctx context.Context, jsonPath, assetsDir, defaultExt string) (int, error) {
	ctx, span := tracer.Start(ctx, "RewritePaths")
	defer span.End()

	records, err := items.ReadJSONFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", jsonPath, err)
	}

	rewritten := 0
	for i, r := range records {
		if r.Name == "" || r.Image == "" {
			continue
		}
		records[i].Image = LocalImagePath(assetsDir, r, defaultExt)
		rewritten++
	}

	backup := jsonPath + ".bak"
	_, err = os.Stat(backup)
	if os.IsNotExist(err) {
		err = os.Rename(jsonPath, backup)
		if err != nil {
			return 0, fmt.Errorf("backup %s: %w", jsonPath, err)
		}
		slog.InfoContext(ctx, "saved backup", "path", backup)
	}

	err = exporter.WriteJSON(ctx, []string{jsonPath}, records)
	if err != nil {
		return 0, err
	}
	return rewritten, nil
}
