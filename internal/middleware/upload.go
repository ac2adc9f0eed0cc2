package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

// Default limits for SingleFile.
const (
	DefaultMaxFileBytes  = 10 << 20
	DefaultMaxFieldBytes = 1 << 20

	// multipartOverhead covers boundaries and part headers on top of the
	// file and field limits.
	multipartOverhead = 64 << 10
)

// UploadOptions configures SingleFile.
type UploadOptions struct {
	Field         string // form field carrying the file
	MaxFileBytes  int64
	MaxFieldBytes int64 // budget shared by all text fields
	// InternalMessage is sent with a 500 when storing fails for reasons
	// outside the client's control.
	InternalMessage string
}

func (o UploadOptions) withDefaults() UploadOptions {
	if o.Field == "" {
		o.Field = domain.FieldImage
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = DefaultMaxFileBytes
	}
	if o.MaxFieldBytes <= 0 {
		o.MaxFieldBytes = DefaultMaxFieldBytes
	}
	if o.InternalMessage == "" {
		o.InternalMessage = "Internal server error"
	}
	return o
}

type uploadKey struct{}

// UploadFromContext returns the upload attached by SingleFile, or nil when
// the request was not multipart.
func UploadFromContext(ctx context.Context) *domain.Upload {
	up, _ := ctx.Value(uploadKey{}).(*domain.Upload)
	return up
}

// SingleFile parses a multipart body, storing at most one image from
// opts.Field and collecting the text fields. Rejected uploads never reach
// the next handler and leave nothing in the store. Non-multipart requests
// pass through untouched.
func SingleFile(store domain.FileStore, opts UploadOptions) func(http.Handler) http.Handler {
	opts = opts.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxFileBytes+opts.MaxFieldBytes+multipartOverhead)
			up, err := readUpload(r, store, opts)
			if err != nil {
				RecordUploadRejected()
				status, msg := uploadErrorStatus(err, opts)
				log.Printf("request_id=%s upload rejected: status=%d err=%v", GetRequestID(r.Context()), status, err)
				WriteError(w, status, msg)
				return
			}
			if up.File != nil {
				RecordUploadStored(up.File.Size)
			}

			ctx := context.WithValue(r.Context(), uploadKey{}, up)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func readUpload(r *http.Request, store domain.FileStore, opts UploadOptions) (*domain.Upload, error) {
	ctx := r.Context()
	up := &domain.Upload{}
	fail := func(err error) (*domain.Upload, error) {
		if up.File != nil {
			if rmErr := store.Remove(ctx, up.File.Name); rmErr != nil {
				log.Printf("request_id=%s cleanup failed: file=%s err=%v", GetRequestID(ctx), up.File.Name, rmErr)
			}
		}
		return nil, err
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedForm, err)
	}

	fieldBudget := opts.MaxFieldBytes
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(classifyClientErr(err))
		}

		name := part.FormName()
		switch {
		case name == "":
			// parts without a form name carry nothing we can use
		case part.FileName() == "":
			// the name counts against the budget too
			if int64(len(name)) > fieldBudget {
				part.Close()
				return fail(domain.ErrFieldsTooLarge)
			}
			fieldBudget -= int64(len(name))
			var buf bytes.Buffer
			n, err := io.Copy(&buf, io.LimitReader(part, fieldBudget+1))
			if err != nil {
				part.Close()
				return fail(classifyClientErr(err))
			}
			if n > fieldBudget {
				part.Close()
				return fail(domain.ErrFieldsTooLarge)
			}
			fieldBudget -= n
			up.Fields = append(up.Fields, domain.FormField{Name: name, Value: buf.String()})
		default:
			if name != opts.Field || up.File != nil {
				part.Close()
				return fail(fmt.Errorf("%w: %s", domain.ErrUnexpectedField, name))
			}
			ct := part.Header.Get("Content-Type")
			if !ValidateImageContentType(ct) {
				part.Close()
				return fail(fmt.Errorf("%w: %q", domain.ErrNotImage, ct))
			}
			stored, err := store.Save(ctx, domain.UploadMeta{
				Field:        name,
				OriginalName: part.FileName(),
				ContentType:  ct,
			}, part, opts.MaxFileBytes)
			if err != nil {
				part.Close()
				return fail(classifyReadErr(err))
			}
			up.File = &stored
		}
		part.Close()
	}
	return up, nil
}

// classifyClientErr maps failures while reading the body itself.
func classifyClientErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFileTooLarge, mbe.Limit)
	}
	return fmt.Errorf("%w: %v", domain.ErrMalformedForm, err)
}

// classifyReadErr separates client mistakes from storage failures when
// streaming a file part into the store.
func classifyReadErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || errors.Is(err, io.ErrUnexpectedEOF) {
		return classifyClientErr(err)
	}
	return err
}

func uploadErrorStatus(err error, opts UploadOptions) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMalformedForm):
		return http.StatusBadRequest, "Malformed multipart body"
	case errors.Is(err, domain.ErrUnexpectedField):
		return http.StatusBadRequest, "Unexpected field"
	case errors.Is(err, domain.ErrNotImage):
		return http.StatusUnsupportedMediaType, "Only image files are allowed"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, domain.ErrFieldsTooLarge):
		return http.StatusRequestEntityTooLarge, "Form fields too large"
	}
	return http.StatusInternalServerError, opts.InternalMessage
}
