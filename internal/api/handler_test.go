package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cardcrop/internal/config"
	"cardcrop/internal/storage"
)

func testConfig() config.Config {
	return config.Config{
		Port:           8000,
		Host:           "127.0.0.1",
		Environment:    "test",
		MaxImageSizeMB: 10,
		CropTimeout:    10 * time.Second,
		HistoryDBPath:  ":memory:",
	}
}

func newTestApp(t *testing.T, cfg config.Config, history *storage.History) *fiber.App {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := NewFiber(logger, cfg.MaxImageSizeMB)
	New(logger, cfg, nil, history).Start(app)
	return app
}

// cardImage draws a bright card-proportioned rectangle on a dark frame.
func cardImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 560))
	for y := 0; y < 560; y++ {
		for x := 0; x < 400; x++ {
			c := color.NRGBA{30, 30, 30, 255}
			if x >= 120 && x < 280 && y >= 168 && y < 392 {
				c = color.NRGBA{225, 220, 210, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// uploadRequest builds a multipart POST with one file part carrying the
// given bytes and content type.
func uploadRequest(t *testing.T, url, contentType string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="card.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

type cropResponseBody struct {
	Success      bool    `json:"success"`
	CroppedImage string  `json:"cropped_image"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message"`
	Failure      string  `json:"failure"`
	OriginalSize []int   `json:"original_size"`
	CroppedSize  []int   `json:"cropped_size"`
	DebugImage   string  `json:"debug_image"`
}

func decodeCropResponse(t *testing.T, res *http.Response) cropResponseBody {
	t.Helper()
	var body cropResponseBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCropImageSuccess(t *testing.T) {
	history, err := storage.OpenHistory(":memory:")
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	app := newTestApp(t, testConfig(), history)

	req := uploadRequest(t, "/api/crop-image", "image/png", encodePNG(t, cardImage()))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	body := decodeCropResponse(t, res)
	if !body.Success {
		t.Fatalf("success=false: %s", body.Message)
	}
	if body.Confidence < 0.8 {
		t.Errorf("confidence = %.3f, want >= 0.8", body.Confidence)
	}
	if !strings.HasPrefix(body.CroppedImage, "data:image/jpeg;base64,") {
		t.Errorf("cropped_image is not a jpeg data URL: %.40s", body.CroppedImage)
	}
	if len(body.OriginalSize) != 2 || body.OriginalSize[0] != 400 || body.OriginalSize[1] != 560 {
		t.Errorf("original_size = %v, want [400 560]", body.OriginalSize)
	}
	if len(body.CroppedSize) != 2 || body.CroppedSize[0] >= body.CroppedSize[1] {
		t.Errorf("cropped_size = %v, want a portrait pair", body.CroppedSize)
	}

	// The scan must have landed in the history.
	scansReq := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	scansRes, err := app.Test(scansReq, -1)
	if err != nil {
		t.Fatalf("scans request failed: %v", err)
	}
	var scans struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(scansRes.Body).Decode(&scans); err != nil {
		t.Fatalf("decode scans: %v", err)
	}
	if scans.Count != 1 {
		t.Errorf("scan count = %d, want 1", scans.Count)
	}
}

func TestCropImageDebugOverlay(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	req := uploadRequest(t, "/api/crop-image?debug=1", "image/png", encodePNG(t, cardImage()))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body := decodeCropResponse(t, res)
	if !body.Success {
		t.Fatalf("success=false: %s", body.Message)
	}
	if !strings.HasPrefix(body.DebugImage, "data:image/jpeg;base64,") {
		t.Error("debug_image missing from debug response")
	}
}

func TestCropImageNoCardDetected(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	blank := image.NewNRGBA(image.Rect(0, 0, 300, 420))
	for y := 0; y < 420; y++ {
		for x := 0; x < 300; x++ {
			blank.SetNRGBA(x, y, color.NRGBA{120, 120, 120, 255})
		}
	}

	req := uploadRequest(t, "/api/crop-image", "image/png", encodePNG(t, blank))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", res.StatusCode)
	}

	body := decodeCropResponse(t, res)
	if body.Success {
		t.Error("success=true for a blank frame")
	}
	if body.Failure != "no_card_detected" {
		t.Errorf("failure = %q, want no_card_detected", body.Failure)
	}
}

func TestCropImageMissingFile(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.WriteField("note", "no file here")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/crop-image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestCropImageRejectsNonImageContentType(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	req := uploadRequest(t, "/api/crop-image", "text/plain", []byte("hello"))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestCropImageRejectsUndecodableBytes(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	req := uploadRequest(t, "/api/crop-image", "image/png", []byte("definitely not a png"))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestCropImageRejectsOversizeUpload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxImageSizeMB = 1
	app := newTestApp(t, cfg, nil)

	oversize := make([]byte, 1536*1024)
	req := uploadRequest(t, "/api/crop-image", "image/png", oversize)
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestCropImageTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.CropTimeout = time.Nanosecond
	app := newTestApp(t, cfg, nil)

	req := uploadRequest(t, "/api/crop-image", "image/png", encodePNG(t, cardImage()))
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", res.StatusCode)
	}

	body := decodeCropResponse(t, res)
	if body.Failure != "processing_timeout" {
		t.Errorf("failure = %q, want processing_timeout", body.Failure)
	}
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var body struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.Environment != "test" {
		t.Errorf("body = %+v", body)
	}
}

func TestRootEndpoint(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
}

func TestRecentScansWithoutHistory(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/scans", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 0 {
		t.Errorf("count = %d, want 0", body.Count)
	}
}
