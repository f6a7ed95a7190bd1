// Package exifmeta proposes copyright records from the EXIF tags of local
// images.
//
// Only tags are read; pixel data is never decoded. The tags used are:
//   - Artist: the record source
//   - Copyright: the copyright holder
//   - DateTimeOriginal, then DateTime: the year
//
// When no date tag is present, a four-digit year found in the Copyright tag
// is used. The identifier of a file is its base name without extension,
// the same token the URL matchers derive from an image path.
package exifmeta
