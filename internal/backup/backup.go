// Package backup archives a database file before it is overwritten.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// timestampLayout names archives so they sort chronologically.
const timestampLayout = "20060102-150405"

// maxSequence bounds the numbered names tried when archives share a timestamp.
const maxSequence = 1000

// Archiver creates zip archives of a database file.
type Archiver struct {
	// Keep is the number of archives retained per database. Zero keeps all.
	Keep int
	now  func() time.Time
}

// New creates an Archiver that keeps the newest keep archives.
func New(keep int) *Archiver {
	return &Archiver{Keep: keep, now: time.Now}
}

// Archive writes path into <outputDir>/<name>-<timestamp>.zip and returns the archive path.
// When that name is taken, <name>-<timestamp>-<n>.zip is used instead.
// The file is stored under its base name with DEFLATE compression and its
// original modification time. Older archives beyond Keep are removed.
func (a *Archiver) Archive(path, outputDir string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file: %s", path)
	}

	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	stamp := a.now().UTC().Format(timestampLayout)

	var outputFilename string
	for seq := 0; ; seq++ {
		if seq == maxSequence {
			return "", fmt.Errorf("failed to archive %s: too many backups at %s", path, stamp)
		}

		outputFilename = filepath.Join(outputDir, archiveName(name, stamp, seq))
		err := writeArchive(path, info, outputFilename)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	log.Printf("Backup created: %s", outputFilename)

	if err := a.prune(name, outputDir); err != nil {
		log.Printf("Warning: could not remove old backups: %v", err)
	}
	return outputFilename, nil
}

func archiveName(name, stamp string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s-%s.zip", name, stamp)
	}
	return fmt.Sprintf("%s-%s-%d.zip", name, stamp, seq)
}

// writeArchive creates outputFilename, failing with os.ErrExist when it is
// already there. Only a file created by this call is removed on failure.
func writeArchive(path string, info os.FileInfo, outputFilename string) (err error) {
	zipFile, err := os.OpenFile(outputFilename, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zipFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outputFilename)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return err
	}

	return zipWriter.Close()
}

// prune removes the oldest archives of name so that at most Keep remain.
func (a *Archiver) prune(name, outputDir string) error {
	if a.Keep <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, name+"-*.zip"))
	if err != nil {
		return err
	}

	type archive struct {
		path  string
		stamp string
		seq   int
	}

	var archives []archive
	for _, m := range matches {
		stamp, seq, ok := parseArchiveName(name, filepath.Base(m))
		if !ok {
			// Another store whose name starts with name-
			continue
		}
		archives = append(archives, archive{path: m, stamp: stamp, seq: seq})
	}
	if len(archives) <= a.Keep {
		return nil
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].stamp != archives[j].stamp {
			return archives[i].stamp < archives[j].stamp
		}
		return archives[i].seq < archives[j].seq
	})
	for _, old := range archives[:len(archives)-a.Keep] {
		if err := os.Remove(old.path); err != nil {
			return err
		}
	}
	return nil
}

// parseArchiveName splits an archive file name written for name into its
// timestamp and sequence number.
func parseArchiveName(name, base string) (stamp string, seq int, ok bool) {
	rest, found := strings.CutPrefix(base, name+"-")
	if !found {
		return "", 0, false
	}
	rest, found = strings.CutSuffix(rest, ".zip")
	if !found || len(rest) < len(timestampLayout) {
		return "", 0, false
	}

	stamp, suffix := rest[:len(timestampLayout)], rest[len(timestampLayout):]
	if _, err := time.Parse(timestampLayout, stamp); err != nil {
		return "", 0, false
	}
	if suffix == "" {
		return stamp, 0, true
	}

	digits, found := strings.CutPrefix(suffix, "-")
	if !found {
		return "", 0, false
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq <= 0 || strconv.Itoa(seq) != digits {
		return "", 0, false
	}
	return stamp, seq, true
}
