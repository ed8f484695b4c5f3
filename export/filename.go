package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxDownloadFilenameLen = 200

var sanitizeDisposition = regexp.MustCompile(`[<>:"/\\|?*]`)

// singleFilename implements the "Single" row of spec §6.3.
func singleFilename(hint string, req ExportRequest, shortID string, now time.Time) string {
	if hint != "" {
		return ensureExt(hint, "xlsx")
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s.xlsx",
		req.ExportType, req.TemplateName, shortID,
		now.Format("02-01-2006"), now.Format("150405"))
}

// chunkFilename implements the "Chunk" row of spec §6.3.
func chunkFilename(customBase string, req ExportRequest, shortID string, batch, total int, now time.Time) string {
	if customBase != "" {
		return fmt.Sprintf("%s_batch_%d_of_%d.xlsx", trimExt(customBase), batch, total)
	}
	return fmt.Sprintf("%s_%s_%s_batch_%d_%s_%s.xlsx",
		req.ExportType, req.TemplateName, shortID, batch,
		now.Format("02-01-2006"), now.Format("150405"))
}

// archiveFilename implements the "Archive" row of spec §6.3.
func archiveFilename(customBase string, req ExportRequest, shortID string, now time.Time) string {
	if customBase != "" {
		return trimExt(customBase) + "_complete_export.zip"
	}
	return fmt.Sprintf("%s_%s_%s_complete_%s.zip",
		req.ExportType, req.TemplateName, shortID, now.Format("02-01-2006"))
}

// shortID is the first 8 characters of an export id (spec §6.3).
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func ensureExt(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), "."+ext) {
		return name
	}
	return name + "." + ext
}

func trimExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}

// sanitizeDownloadFilename implements the Download Handler's sanitization
// rule (spec §4.9): replaces the path separators `/` and `\` with `_`,
// strips `< > : " | ? *`, truncates to ≤200 characters keeping the
// extension, and appends ".bin" when the name has no extension.
func sanitizeDownloadFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = sanitizeDisposition.ReplaceAllString(name, "")
	if name == "" {
		name = "export"
	}
	if len(name) > maxDownloadFilenameLen {
		ext := ""
		if idx := strings.LastIndex(name, "."); idx > 0 {
			ext = name[idx:]
			name = name[:idx]
		}
		budget := maxDownloadFilenameLen - len(ext)
		if budget < 1 {
			budget = 1
		}
		if len(name) > budget {
			name = name[:budget]
		}
		name += ext
	}
	if !strings.Contains(name, ".") {
		name += ".bin"
	}
	return name
}
