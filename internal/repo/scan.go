package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scan walks root and reads every allowlisted file with a bounded
// worker pool. Unreadable files are logged and skipped rather than
// failing the walk.
func (p *Parser) scan(ctx context.Context, root string) (map[string]FileRecord, error) {
	files := make(map[string]FileRecord)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && name != "." {
				if allow, known := hiddenDirAllowlist[name]; known && allow {
					return nil
				}
				return filepath.SkipDir
			}
			// Dependency trees are noise, not monolith source.
			if name == "node_modules" || name == "bin" || name == "obj" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := parseExtensions[ext]; !ok {
			return nil
		}
		if info.Size() > maxFileBytes {
			p.log.Debug("skipping oversized file",
				zap.String("path", path),
				zap.Int64("bytes", info.Size()))
			return nil
		}

		size := info.Size()
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			data, err := os.ReadFile(path)
			if err != nil {
				p.log.Debug("skipping unreadable file",
					zap.String("path", path), zap.Error(err))
				return nil
			}
			rec := FileRecord{
				Path:      relPath(root, path),
				Content:   string(data),
				Extension: ext,
				Language:  detectLanguage(ext),
				SizeBytes: size,
			}
			mu.Lock()
			files[rec.Path] = rec
			mu.Unlock()
			return nil
		})
		return nil
	})
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return nil, err
	}
	return files, nil
}
