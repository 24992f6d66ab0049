package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"washfamily/internal/models"
)

// maxUploadBytes caps how much of a single part is read into memory. The
// controllers apply their own, smaller limits.
const maxUploadBytes = 10<<20 + 1

func readAttachment(header *multipart.FileHeader) (models.Attachment, error) {
	file, err := header.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return models.Attachment{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	return models.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
