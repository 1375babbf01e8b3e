package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"picksheet/pkg/extract"
	"picksheet/pkg/tasks"

	"github.com/gin-gonic/gin"
)

const defaultUploadSource = "upload"

// readDocument returns the text of the uploaded document. It accepts a multipart form
// with a "file" field or the raw document as the request body.
func (h *HandlerService) readDocument(c *gin.Context) (text, source string, err error) {
	limit := int64(h.config.Server.MaxUploadMB) << 20
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var data []byte
	source = defaultUploadSource

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			return "", "", uploadError(ferr, "missing multipart field \"file\"")
		}
		f, ferr := fh.Open()
		if ferr != nil {
			return "", "", fmt.Errorf("open upload: %w", ferr)
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return "", "", fmt.Errorf("read upload: %w", err)
		}
		source = filepath.Base(fh.Filename)
	} else {
		if data, err = io.ReadAll(c.Request.Body); err != nil {
			return "", "", uploadError(err, "failed to read request body")
		}
	}

	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: no document in request", tasks.ErrEmptyInput)
	}

	text, err = extract.Bytes(data)
	if err != nil {
		return "", "", err
	}
	return text, source, nil
}

func uploadError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return fmt.Errorf("%w: %s", ErrInvalidParam, message)
	}
	return NewBadRequestError(message, err)
}

// reportName derives the download name from the uploaded file name.
func reportName(source, ext string) string {
	stem := strings.TrimSuffix(source, filepath.Ext(source))
	if stem == "" {
		stem = defaultUploadSource
	}
	return stem + "-picksheet" + ext
}

// sanitizeConfig returns the configuration sections that are safe to expose
func (h *HandlerService) sanitizeConfig() map[string]interface{} {
	cfg := h.config
	return map[string]interface{}{
		"parser": map[string]interface{}{
			"boundary_marker":    cfg.Parser.BoundaryMarker,
			"min_segment_length": cfg.Parser.MinSegmentLength,
			"match_timeout_ms":   cfg.Parser.MatchTimeoutMS,
			"shipper":            cfg.Parser.Shipper,
		},
		"report": map[string]interface{}{
			"font_configured": cfg.Report.FontPath != "",
			"font_size":       cfg.Report.FontSize,
			"preview_width":   cfg.Report.PreviewWidth,
			"labels":          cfg.Report.Labels,
		},
		"runtime": cfg.Runtime,
		"scheduler": map[string]interface{}{
			"enabled": cfg.Scheduler.Enabled,
			"jobs":    len(cfg.Scheduler.Jobs),
		},
		"storage": map[string]interface{}{
			"driver": cfg.Storage.Driver,
		},
		"notifications": map[string]interface{}{
			"wechat":   cfg.WeChat != nil && cfg.WeChat.Enabled,
			"telegram": cfg.Telegram != nil && cfg.Telegram.Enabled,
		},
		"app": cfg.App,
	}
}

// formatDuration formats a duration as a short readable string
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// getCurrentTimestamp returns the current UTC time
func getCurrentTimestamp() time.Time {
	return time.Now().UTC()
}
