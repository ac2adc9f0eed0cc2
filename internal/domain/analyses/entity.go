package analyses

import "time"

// PublicPrefix is the URL prefix stored files are served under.
const PublicPrefix = "/uploads/"

// TimestampLayout renders UTC times as ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Form field names accepted on upload.
const (
	FieldImage         = "image"
	FieldTopPrediction = "topPrediction"
	FieldTopConfidence = "topConfidence"
	FieldPredictions   = "predictions"
)

// Record is the machine analysis echoed back for one accepted upload.
// It is built per request and never stored.
type Record struct {
	ID            int64      `json:"id"`
	ImagePath     string     `json:"imagePath"`
	TopPrediction *string    `json:"topPrediction,omitempty"`
	TopConfidence Confidence `json:"topConfidence"`
	Predictions   *string    `json:"predictions,omitempty"`
	CreatedAt     string     `json:"createdAt"`
}

// FormField is one text part of a multipart body, in arrival order.
type FormField struct {
	Name  string
	Value string
}

// StoredFile describes an image written to the upload directory.
type StoredFile struct {
	Name         string `json:"name"`
	Path         string `json:"-"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}

// PublicPath returns the URL path the file is served under.
func (f StoredFile) PublicPath() string {
	return PublicPrefix + f.Name
}

// Upload is what the multipart middleware hands to the analyses handler.
type Upload struct {
	File   *StoredFile
	Fields []FormField
}

// Value returns the first value sent for name.
func (u *Upload) Value(name string) (string, bool) {
	return firstValue(u.Fields, name)
}

func firstValue(fields []FormField, name string) (string, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// FormatTimestamp renders t the way createdAt and health timestamps are sent.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
