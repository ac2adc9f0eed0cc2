package analyses

import "errors"

var (
	// ErrNoFile is returned when an analysis is requested without an image part.
	ErrNoFile = errors.New("no image file provided")
	// ErrUnexpectedField is returned for file parts outside the image field, or a second image.
	ErrUnexpectedField = errors.New("unexpected file field")
	// ErrNotImage is returned when the declared content type is not image/*.
	ErrNotImage = errors.New("only image files are allowed")
	// ErrFileTooLarge is returned when the image exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrFieldsTooLarge is returned when the text fields exceed their budget.
	ErrFieldsTooLarge = errors.New("form fields too large")
	// ErrMalformedForm is returned when the multipart body cannot be parsed.
	ErrMalformedForm = errors.New("malformed multipart body")
)
