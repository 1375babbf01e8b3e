package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"picksheet/pkg/labels"
	"picksheet/pkg/response"
	"picksheet/pkg/tasks"

	"github.com/gin-gonic/gin"
)

// ParseResponse is the JSON body of a successful parse.
type ParseResponse struct {
	RunID    string                  `json:"run_id"`
	Source   string                  `json:"source"`
	Segments int                     `json:"segments"`
	Parcels  int                     `json:"parcels"`
	Records  []labels.ShipmentRecord `json:"records"`
	Counts   []labels.ProductCount   `json:"counts"`
	Skipped  []labels.SkippedSegment `json:"skipped"`
}

// ParseLabels parses an uploaded label document and returns records and counts.
// An engine failure answers 422 and no records.
func (h *HandlerService) ParseLabels(c *gin.Context) {
	run, ok := h.process(c)
	if !ok {
		return
	}

	res := run.Result
	c.JSON(http.StatusOK, ParseResponse{
		RunID:    run.ID,
		Source:   run.Source,
		Segments: res.Segments,
		Parcels:  labels.TotalCount(res.Counts),
		Records:  res.Records,
		Counts:   res.Counts,
		Skipped:  res.Skipped,
	})
}

// RenderReport parses an uploaded document and answers with the manifest and pick
// sheet as PDF.
func (h *HandlerService) RenderReport(c *gin.Context) {
	h.render(c, response.ContentTypePDF, ".pdf", h.runner.RenderPDF)
}

// RenderPreview parses an uploaded document and answers with the pick sheet as PNG.
func (h *HandlerService) RenderPreview(c *gin.Context) {
	h.render(c, response.ContentTypePNG, ".png", h.runner.RenderPreview)
}

func (h *HandlerService) render(c *gin.Context, contentType, ext string, renderFn func(io.Writer, *labels.Result) error) {
	run, ok := h.process(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := renderFn(&buf, run.Result); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportName(run.Source, ext)))
	c.Header("X-Run-ID", run.ID)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *HandlerService) process(c *gin.Context) (*tasks.Run, bool) {
	text, source, err := h.readDocument(c)
	if err != nil {
		HandleError(c, err)
		return nil, false
	}

	ctx := tasks.WithTrigger(c.Request.Context(), tasks.TriggerHTTP)
	run, err := h.runner.Execute(ctx, &tasks.Request{Source: source, Text: text})
	if err != nil {
		if run != nil {
			c.Header("X-Run-ID", run.ID)
		}
		HandleError(c, err)
		return nil, false
	}
	return run, true
}
