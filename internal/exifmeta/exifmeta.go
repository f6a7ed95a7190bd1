package exifmeta

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/creditline/internal/model"
)

// MaxImageSize limits how much of an image is read looking for EXIF data.
const MaxImageSize = 16 * 1024 * 1024

var (
	// ErrNoExif is returned when an image carries no EXIF block.
	ErrNoExif = errors.New("no EXIF data")

	// ErrNoAttribution is returned when the EXIF block has neither an
	// Artist nor a Copyright tag.
	ErrNoAttribution = errors.New("no attribution tags")

	// ErrInvalidDataURI is returned for a data: URI that cannot be decoded.
	ErrInvalidDataURI = errors.New("invalid data URI")
)

// yearPattern finds a plausible year in free text.
var yearPattern = regexp.MustCompile(`\b(1[89]\d\d|2\d\d\d)\b`)

// IDFromName returns the identifier of an image file: its base name without
// extension.
func IDFromName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile reads the EXIF tags of the image at path.
func ReadFile(path string) (string, model.CopyrightRecord, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided image path is intentional
	if err != nil {
		return "", model.CopyrightRecord{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize))
	if err != nil {
		return "", model.CopyrightRecord{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ReadBytes(path, data)
}

// ReadBytes extracts a record from image bytes. name only provides the
// identifier.
func ReadBytes(name string, data []byte) (string, model.CopyrightRecord, error) {
	id := IDFromName(name)

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return id, model.CopyrightRecord{}, ErrNoExif
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return id, model.CopyrightRecord{}, fmt.Errorf("failed to parse EXIF of %s: %w", name, err)
	}

	tags := make(map[string]string, len(entries))
	for _, entry := range entries {
		value := strings.TrimSpace(strings.TrimRight(entry.Formatted, "\x00"))
		if value == "" {
			continue
		}
		if _, seen := tags[entry.TagName]; !seen {
			tags[entry.TagName] = value
		}
	}

	rec := model.CopyrightRecord{
		Source:    tags["Artist"],
		Copyright: tags["Copyright"],
	}
	if rec.Source == "" && rec.Copyright == "" {
		return id, model.CopyrightRecord{}, ErrNoAttribution
	}
	rec.Year = yearOf(tags)

	return id, rec, nil
}

// ReadDataURI extracts a record from a base64 data: URI.
func ReadDataURI(name, uri string) (string, model.CopyrightRecord, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(header), "data:") || !strings.HasSuffix(header, ";base64") {
		return IDFromName(name), model.CopyrightRecord{}, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return IDFromName(name), model.CopyrightRecord{}, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
		}
	}
	return ReadBytes(name, data)
}

// yearOf picks the year from the date tags, then from the Copyright text.
func yearOf(tags map[string]string) string {
	for _, tag := range []string{"DateTimeOriginal", "DateTime"} {
		if v := tags[tag]; len(v) >= 4 && yearPattern.MatchString(v[:4]) {
			return v[:4]
		}
	}
	if m := yearPattern.FindString(tags["Copyright"]); m != "" {
		return m
	}
	return ""
}

// Harvest reads every path and returns the records found. Images without
// EXIF data or attribution tags are skipped; other failures are returned
// alongside the partial table.
func Harvest(paths []string) (model.Table, []error) {
	table := model.Table{}
	var errs []error
	for _, p := range paths {
		id, rec, err := ReadFile(p)
		switch {
		case errors.Is(err, ErrNoExif), errors.Is(err, ErrNoAttribution):
			continue
		case err != nil:
			errs = append(errs, err)
			continue
		}
		table[id] = rec
	}
	return table, errs
}
