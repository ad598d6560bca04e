// Package usecase implements the business logic for the diagnosis feature.
package usecase

import "errors"

var (
	// ErrSessionNotFound is returned when a diagnosis session does not exist or has expired.
	ErrSessionNotFound = errors.New("diagnosis session not found")

	// ErrEmptyImage is returned when an upload carries no image data.
	ErrEmptyImage = errors.New("image data is empty")

	// ErrImageTooLarge is returned when an upload exceeds MaxImageSize.
	ErrImageTooLarge = errors.New("image size exceeds maximum")

	// ErrUnsupportedImage is returned when the uploaded file is not a previewable image.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrReportUnavailable is returned when the detailed report is requested before a successful classification.
	ErrReportUnavailable = errors.New("report is available only after a successful classification")
)
