package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/observability"
)

var (
	// ErrFileRequired indicates the request carried no file part.
	ErrFileRequired = errors.New("file is required")
	// ErrFileTooLarge indicates the file exceeded the configured ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrFileTypeNotAllowed indicates the extension is not accepted.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	// ErrFileRead indicates the file could not be read.
	ErrFileRead = errors.New("file could not be read")
)

const octetStream = "application/octet-stream"

// EncodedFile is an attachment ready to travel inside a submission.
// Preview is a data URL for images and empty otherwise.
type EncodedFile struct {
	Payload models.FilePayload `json:"payload"`
	Preview string             `json:"preview,omitempty"`
}

// FileEncoder turns an uploaded part into a base64 payload.
type FileEncoder interface {
	Encode(ctx context.Context, file *multipart.FileHeader) (EncodedFile, error)
}

type fileEncoder struct {
	maxMB   int
	maxSize int64
	allowed map[string]struct{}
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewFileEncoder constructs an encoder with a size ceiling in megabytes and
// an extension allow-list. An empty list accepts any extension.
func NewFileEncoder(maxSizeMB int, allowedExt []string, logger zerolog.Logger) FileEncoder {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	allowed := make(map[string]struct{}, len(allowedExt))
	for _, ext := range allowedExt {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &fileEncoder{
		maxMB:   maxSizeMB,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		allowed: allowed,
		logger:  logger.With().Str("component", "file_encoder").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/edusubmit-api/internal/service/file_encoder"),
	}
}

func (e *fileEncoder) tooLarge() error {
	message := fmt.Sprintf(MsgFileTooLarge, e.maxMB)
	return &ValidationError{Message: message, Fields: map[string]string{"file": message}, Err: ErrFileTooLarge}
}

func (e *fileEncoder) Encode(ctx context.Context, file *multipart.FileHeader) (EncodedFile, error) {
	_, span := e.tracer.Start(ctx, "file.encode")
	defer span.End()

	span.SetAttributes(attribute.Int64("file.max_bytes", e.maxSize))
	if file == nil {
		span.SetAttributes(attribute.Bool("file.present", false))
		span.SetStatus(codes.Error, "validation failed")
		return EncodedFile{}, &ValidationError{Message: MsgFileRequired, Fields: map[string]string{"file": MsgFileRequired}, Err: ErrFileRequired}
	}

	name := filepath.Base(strings.TrimSpace(file.Filename))
	span.SetAttributes(
		attribute.String("file.name", name),
		attribute.Int64("file.declared_size", file.Size),
	)

	if file.Size > e.maxSize {
		observability.FileRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrFileTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return EncodedFile{}, e.tooLarge()
	}

	if !e.extensionAllowed(name) {
		observability.FileRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrFileTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return EncodedFile{}, &ValidationError{Message: MsgFileType, Fields: map[string]string{"file": MsgFileType}, Err: ErrFileTypeNotAllowed}
	}

	content, err := e.read(file)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			observability.FileRejected().WithLabelValues("size").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "payload too large")
			return EncodedFile{}, e.tooLarge()
		}
		observability.FileRejected().WithLabelValues("read").Inc()
		e.logger.Warn().Err(err).Str("file", name).Msg("failed to read attachment")
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return EncodedFile{}, &ValidationError{Message: MsgFileRead, Fields: map[string]string{"file": MsgFileRead}, Err: ErrFileRead}
	}

	mimeType := declaredType(file)
	if mimeType == "" {
		mimeType = baseType(mimetype.Detect(content).String())
	}
	span.SetAttributes(
		attribute.String("file.mime", mimeType),
		attribute.Int("file.size", len(content)),
	)

	payload := models.FilePayload{
		Name:   name,
		Type:   mimeType,
		Size:   int64(len(content)),
		Base64: base64.StdEncoding.EncodeToString(content),
	}
	result := EncodedFile{Payload: payload, Preview: models.PreviewURL(payload)}

	span.SetStatus(codes.Ok, "encoded")
	return result, nil
}

// read is bounded at the ceiling plus one byte so an understated header
// is still caught.
func (e *fileEncoder) read(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, e.maxSize+1)); err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if int64(buf.Len()) > e.maxSize {
		return nil, ErrFileTooLarge
	}
	return buf.Bytes(), nil
}

func (e *fileEncoder) extensionAllowed(name string) bool {
	if len(e.allowed) == 0 {
		return true
	}
	_, ok := e.allowed[strings.ToLower(filepath.Ext(name))]
	return ok
}

func declaredType(file *multipart.FileHeader) string {
	if file.Header == nil {
		return ""
	}
	declared := baseType(file.Header.Get("Content-Type"))
	if declared == octetStream {
		return ""
	}
	return declared
}

func baseType(m string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(m, ";", 2)[0]))
}
