package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/core"
	"github.com/safelens/veriscan/internal/store"
)

// Verify accepts a multipart submission (optional text field, optional
// image file, optional member_id), runs the full verification flow, and
// returns the aggregate plus the raw per-agent results.
func (s *Server) Verify(c *gin.Context) {
	in, ok := s.bindSubmitInput(c)
	if !ok {
		return
	}

	result, err := s.verifier.Submit(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictMedia is the image-first wrapper around the verify flow: the file
// is mandatory and the response is reshaped for media-prediction callers.
func (s *Server) PredictMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "VERIFY_FAILED",
			"message":    "file is required",
		})
		return
	}

	image, err := readUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "VERIFY_FAILED",
			"message":    "failed to read file",
		})
		return
	}

	in := core.SubmitInput{
		MemberID:  parseMemberID(c),
		Text:      c.PostForm("text"),
		Image:     image,
		ImageMIME: safeImageMIME(fileHeader),
	}

	result, err := s.verifier.Submit(c.Request.Context(), in)
	if err != nil {
		status, body := errorResponse(err)
		c.JSON(status, gin.H{
			"error_code": "VERIFY_FAILED",
			"message":    body["error"],
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction_id":    strconv.FormatInt(result.VerificationID, 10),
		"risk_score":       result.Final.RiskScore,
		"risk_level":       result.Final.RiskLevel,
		"risk_category":    result.Final.RiskCategory,
		"analysis_details": analysisDetails(result),
	})
}

func (s *Server) bindSubmitInput(c *gin.Context) (core.SubmitInput, bool) {
	in := core.SubmitInput{
		MemberID: parseMemberID(c),
		Text:     c.PostForm("text"),
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case err == nil:
		image, readErr := readUpload(fileHeader)
		if readErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
			return in, false
		}
		in.Image = image
		in.ImageMIME = safeImageMIME(fileHeader)
	case errors.Is(err, http.ErrMissingFile):
		// text-only submission
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return in, false
	}

	return in, true
}

func parseMemberID(c *gin.Context) *int64 {
	raw := strings.TrimSpace(c.PostForm("member_id"))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// safeImageMIME resolves the upload's MIME type: declared content type when
// it is an image, filename extension next, jpeg as the final fallback.
func safeImageMIME(fh *multipart.FileHeader) string {
	ct := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	name := strings.ToLower(fh.Filename)
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	}
	return "image/jpeg"
}

// analysisDetails picks human-readable detail lines for the prediction
// response: multimodal reasons first, its categories next.
func analysisDetails(result *core.SubmitResult) []string {
	multimodal, ok := result.Agents[agent.NameGemini]
	if ok {
		if len(multimodal.Reasons) > 0 {
			return multimodal.Reasons
		}
		if len(multimodal.Categories) > 0 {
			return multimodal.Categories
		}
	}
	return []string{"No analysis details available."}
}

// errorResponse maps the error taxonomy onto HTTP statuses: client input
// 400, upstream classifier failures 502, configuration and storage 500.
func errorResponse(err error) (int, gin.H) {
	var inputErr *core.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, gin.H{"error": inputErr.Msg}
	}

	var malformedErr *agent.MalformedPayloadError
	if errors.As(err, &malformedErr) {
		return http.StatusBadGateway, gin.H{"error": malformedErr.Error()}
	}

	var upstreamErr *agent.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway, gin.H{"error": upstreamErr.Error()}
	}

	var credErr *agent.CredentialError
	if errors.As(err, &credErr) {
		return http.StatusInternalServerError, gin.H{"error": credErr.Error()}
	}

	var storageErr *core.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusInternalServerError, gin.H{"error": storageErr.Error()}
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, gin.H{"error": "not found"}
	}
	if errors.Is(err, store.ErrDuplicateLogin) {
		return http.StatusConflict, gin.H{"error": store.ErrDuplicateLogin.Error()}
	}

	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= 500 {
		s.log.Error("request failed", "status", status, "error", err)
	}
	c.JSON(status, body)
}
