// Package unpack extracts Journey.Cloud export archives into the
// per-entry directory layout the journey source reads. Each entry
// directory in the archive holds one JSON sidecar plus its media
// files; after extraction the sidecar gets an "attachments" array
// listing the media file names in archive entry order, which is the
// order they were attached in.
package unpack

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Result reports one processed archive.
type Result struct {
	Zip     string
	Entries int
	Updated int
}

type entryFiles struct {
	jsonPath    string
	attachments []string
}

// Extract unpacks one archive into outDir and stamps the sidecars.
func Extract(zipPath, outDir string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := Result{Zip: zipPath}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, err
	}

	entries := map[string]*entryFiles{}
	var order []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			logger.Warn("skipping unsafe archive path", "name", name)
			continue
		}
		parts := strings.Split(name, "/")
		if len(parts) < 2 || parts[len(parts)-1] == "" {
			// Files at the archive root do not belong to an entry.
			continue
		}
		if err := extractFile(f, filepath.Join(outDir, filepath.FromSlash(name))); err != nil {
			return res, fmt.Errorf("extract %s: %w", name, err)
		}

		dir := parts[0]
		ef, ok := entries[dir]
		if !ok {
			ef = &entryFiles{}
			entries[dir] = ef
			order = append(order, dir)
		}
		base := parts[len(parts)-1]
		if strings.HasSuffix(base, ".json") {
			ef.jsonPath = filepath.Join(outDir, filepath.FromSlash(name))
		} else {
			ef.attachments = append(ef.attachments, base)
		}
	}
	res.Entries = len(entries)

	for _, dir := range order {
		ef := entries[dir]
		if ef.jsonPath == "" {
			logger.Warn("entry directory has no sidecar", "dir", dir)
			continue
		}
		if err := stampSidecar(ef.jsonPath, ef.attachments); err != nil {
			logger.Warn("could not update sidecar", "path", ef.jsonPath, "error", err)
			continue
		}
		res.Updated++
	}
	return res, nil
}

// ExtractAll processes each archive into baseDir/<archive-name>/. A
// failing archive is logged and skipped so one bad download does not
// block the rest.
func ExtractAll(zipPaths []string, baseDir string, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var results []Result
	var failed int
	for _, zp := range zipPaths {
		name := strings.TrimSuffix(filepath.Base(zp), filepath.Ext(zp))
		res, err := Extract(zp, filepath.Join(baseDir, name), logger)
		if err != nil {
			logger.Error("archive failed", "zip", zp, "error", err)
			failed++
			continue
		}
		logger.Info("archive unpacked", "zip", zp, "entries", res.Entries, "sidecars_updated", res.Updated)
		results = append(results, res)
	}
	if failed == len(zipPaths) && failed > 0 {
		return results, fmt.Errorf("all %d archives failed", failed)
	}
	return results, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, rc)
	return err
}

// stampSidecar rewrites the sidecar with its attachments array set to
// the archive-ordered file names. Other keys are preserved as-is.
func stampSidecar(path string, attachments []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid sidecar json: %w", err)
	}
	if attachments == nil {
		attachments = []string{}
	}
	doc["attachments"] = attachments
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
