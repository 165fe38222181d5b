package api

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cardcrop/internal/config"
	"cardcrop/internal/detection"
	"cardcrop/internal/imaging"
	"cardcrop/internal/storage"
	"cardcrop/pkg/log"
	"cardcrop/pkg/response"
)

const apiVersion = "1.0.0"

// Handler serves the card-cropping API. The object store and history may
// be nil; the corresponding features are then skipped.
type Handler struct {
	log      *logrus.Logger
	cfg      config.Config
	pipeline detection.Config
	store    storage.ObjectStore
	history  *storage.History
}

func New(logger *logrus.Logger, cfg config.Config, store storage.ObjectStore, history *storage.History) *Handler {
	pipeline := detection.DefaultConfig()
	if cfg.MinConfidence > 0 {
		pipeline.MinConfidence = cfg.MinConfidence
	}

	return &Handler{
		log:      logger,
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		history:  history,
	}
}

// Start registers all routes on the router.
func (h *Handler) Start(router fiber.Router) {
	router.Get("/", h.Root)
	router.Get("/health", h.HealthCheck)

	api := router.Group("/api")
	api.Post("/crop-image", h.CropImage)
	api.Get("/scans", h.RecentScans)
}

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Card Auto-Cropping API",
		"version": apiVersion,
	})
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"environment": h.cfg.Environment,
		"version":     apiVersion,
	})
}

type cropResponse struct {
	Success      bool    `json:"success"`
	CroppedImage string  `json:"cropped_image,omitempty"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message"`
	Failure      string  `json:"failure,omitempty"`
	OriginalSize []int   `json:"original_size"`
	CroppedSize  []int   `json:"cropped_size,omitempty"`
	StorageURL   string  `json:"storage_url,omitempty"`
	DebugImage   string  `json:"debug_image,omitempty"`
}

// CropImage accepts a multipart image upload, runs card detection under
// the configured wall-clock budget, and returns the rectified crop as a
// base64 data URL. Detection failures are 422 so clients can distinguish
// "bad photo" from transport or server problems.
func (h *Handler) CropImage(c *fiber.Ctx) error {
	started := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.sendError(c, response.NewError(fiber.StatusBadRequest, "Missing image file upload"))
	}

	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return h.sendError(c, response.NewError(fiber.StatusBadRequest, "File must be an image (JPEG, PNG or WebP)"))
	}

	maxBytes := int64(h.cfg.MaxImageSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return h.sendError(c, response.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("File size exceeds maximum allowed size (%dMB)", h.cfg.MaxImageSizeMB)))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.sendError(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.sendError(c, fmt.Errorf("failed to read upload: %w", err))
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return h.sendError(c, response.NewError(fiber.StatusBadRequest, "Invalid image format"))
	}

	h.log.WithFields(log.Fields{
		"filename": fileHeader.Filename,
		"bytes":    fileHeader.Size,
	}).Info("processing upload")

	result := h.detectWithTimeout(img)
	h.recordScan(c, fileHeader.Filename, result, time.Since(started))

	if !result.Success {
		h.log.WithFields(log.Fields{
			"filename":   fileHeader.Filename,
			"failure":    result.Failure.String(),
			"confidence": result.Confidence,
		}).Warn("detection failed")

		return c.Status(fiber.StatusUnprocessableEntity).JSON(cropResponse{
			Success:      false,
			Confidence:   result.Confidence,
			Message:      result.Message,
			Failure:      result.Failure.String(),
			OriginalSize: []int{result.OriginalWidth, result.OriginalHeight},
		})
	}

	dataURL, err := imaging.JPEGDataURL(result.Image)
	if err != nil {
		return h.sendError(c, fmt.Errorf("failed to encode crop: %w", err))
	}

	resp := cropResponse{
		Success:      true,
		CroppedImage: dataURL,
		Confidence:   result.Confidence,
		Message:      result.Message,
		OriginalSize: []int{result.OriginalWidth, result.OriginalHeight},
		CroppedSize:  []int{result.CroppedWidth, result.CroppedHeight},
	}

	if h.store != nil {
		resp.StorageURL = h.uploadCrop(result, fileHeader.Filename)
	}

	if c.Query("debug") == "1" {
		if overlay, err := imaging.JPEGDataURL(detection.RenderOverlay(img, h.pipeline)); err == nil {
			resp.DebugImage = overlay
		}
	}

	h.log.WithFields(log.Fields{
		"filename":   fileHeader.Filename,
		"confidence": result.Confidence,
		"elapsed":    time.Since(started).String(),
	}).Info("card cropped")

	return c.JSON(resp)
}

// detectWithTimeout enforces the crop wall-clock budget around one
// pipeline invocation. The pipeline has no cancellation of its own; on
// expiry the in-flight run finishes in the background and its result is
// dropped.
func (h *Handler) detectWithTimeout(img image.Image) detection.DetectionResult {
	results := make(chan detection.DetectionResult, 1)
	go func() {
		results <- detection.Detect(img, h.pipeline)
	}()

	timer := time.NewTimer(h.cfg.CropTimeout)
	defer timer.Stop()

	select {
	case result := <-results:
		return result
	case <-timer.C:
		bounds := img.Bounds()
		return detection.DetectionResult{
			Failure:        detection.FailureTimeout,
			Message:        detection.FailureTimeout.Message(),
			OriginalWidth:  bounds.Dx(),
			OriginalHeight: bounds.Dy(),
		}
	}
}

func (h *Handler) recordScan(c *fiber.Ctx, filename string, result detection.DetectionResult, elapsed time.Duration) {
	if h.history == nil {
		return
	}

	outcome := "success"
	if !result.Success {
		outcome = result.Failure.String()
	}

	rec := storage.ScanRecord{
		Filename:       filename,
		OriginalWidth:  result.OriginalWidth,
		OriginalHeight: result.OriginalHeight,
		CroppedWidth:   result.CroppedWidth,
		CroppedHeight:  result.CroppedHeight,
		Confidence:     result.Confidence,
		Outcome:        outcome,
		Message:        result.Message,
		DurationMS:     elapsed.Milliseconds(),
	}
	if err := h.history.Record(c.Context(), rec); err != nil {
		h.log.WithFields(log.Fields{"error": err.Error()}).Warn("failed to record scan")
	}
}

// uploadCrop pushes the encoded crop to object storage and returns a
// presigned link; failures are logged and leave the response without one.
func (h *Handler) uploadCrop(result detection.DetectionResult, filename string) string {
	data, err := imaging.EncodeJPEG(result.Image)
	if err != nil {
		h.log.WithFields(log.Fields{"error": err.Error()}).Warn("failed to encode crop for storage")
		return ""
	}

	key, err := h.store.UploadCrop(data, filename+".jpg", "image/jpeg", storage.DefaultUserID)
	if err != nil {
		h.log.WithFields(log.Fields{"error": err.Error()}).Warn("failed to upload crop")
		return ""
	}

	url, err := h.store.PresignURL(key)
	if err != nil {
		h.log.WithFields(log.Fields{"error": err.Error(), "key": key}).Warn("failed to presign crop url")
		return ""
	}
	return url
}

// RecentScans lists the newest entries in the scan history.
func (h *Handler) RecentScans(c *fiber.Ctx) error {
	if h.history == nil {
		return c.JSON(fiber.Map{"scans": []storage.ScanRecord{}, "count": 0})
	}

	limit := c.QueryInt("limit", 20)
	scans, err := h.history.Recent(c.Context(), limit)
	if err != nil {
		return h.sendError(c, fmt.Errorf("failed to list scans: %w", err))
	}
	if scans == nil {
		scans = []storage.ScanRecord{}
	}
	return c.JSON(fiber.Map{"scans": scans, "count": len(scans)})
}

// sendError maps errors to JSON responses: response.Error keeps its
// status code, anything else is a 500 with a trace id for the logs.
func (h *Handler) sendError(c *fiber.Ctx, err error) error {
	var apiErr *response.Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(fiber.Map{
			"success": false,
			"message": apiErr.Error(),
		})
	}

	traceID := log.ErrorWithTraceID(log.Fields{"error": err.Error()}, "unhandled API error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success":  false,
		"message":  "Internal server error",
		"trace_id": traceID,
	})
}
