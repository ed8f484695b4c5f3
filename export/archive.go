package export

import (
	"archive/zip"
	"bytes"
)

// buildArchive bundles chunk artifacts into a single zip archive (spec
// §4.5). Entry names match the chunks' suggested filenames and entry
// ordering matches input order. The returned bytes are validated against the
// same container-signature gate the Workbook Writer enforces, since a zip
// archive's signature is the same 50 4B magic.
func buildArchive(chunks []ChunkArtifact) (ArchiveArtifact, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var uncompressedTotal int64
	for _, chunk := range chunks {
		header := &zip.FileHeader{
			Name:   chunk.Artifact.SuggestedFilename,
			Method: zip.Deflate,
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return ArchiveArtifact{}, NewError(KindArtifactInvalid, "failed to create archive entry", err)
		}
		if _, err := entry.Write(chunk.Artifact.Bytes); err != nil {
			return ArchiveArtifact{}, NewError(KindArtifactInvalid, "failed to write archive entry", err)
		}
		uncompressedTotal += chunk.Artifact.UncompressedSize
	}

	if err := zw.Close(); err != nil {
		return ArchiveArtifact{}, NewError(KindArtifactInvalid, "failed to close archive", err)
	}

	data := buf.Bytes()
	if err := validateSpreadsheetBytes(data); err != nil {
		return ArchiveArtifact{}, err
	}

	compressedTotal := int64(len(data))
	ratio := 0.0
	if uncompressedTotal > 0 {
		ratio = float64(compressedTotal) / float64(uncompressedTotal)
	}

	return ArchiveArtifact{
		Artifact: Artifact{
			Bytes:            data,
			MimeType:         "application/zip",
			UncompressedSize: uncompressedTotal,
			RecordCount:      sumRecordCounts(chunks),
		},
		UncompressedTotal: uncompressedTotal,
		CompressedTotal:   compressedTotal,
		CompressionRatio:  ratio,
	}, nil
}

func sumRecordCounts(chunks []ChunkArtifact) int {
	total := 0
	for _, c := range chunks {
		total += c.Artifact.RecordCount
	}
	return total
}
