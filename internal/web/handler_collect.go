package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/clandphoto/internal/imaging"
	"github.com/vbonduro/clandphoto/internal/workflow"
)

// formOverhead is the room left for non-file multipart parts.
const formOverhead = 1 << 20

// allowedImageTypes is the set of MIME types recognised when a browser sends
// a photo without a usable Content-Type. net/http.DetectContentType handles
// JPEG, PNG, GIF and BMP via magic-byte sniffing. WebP is detected separately
// because the WHATWG sniff spec (and therefore the stdlib) does not include a
// WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// declaredMIME returns the part's Content-Type, falling back to sniffing the
// first 512 bytes when the browser sent none or a generic one.
func declaredMIME(h *multipart.FileHeader, logger *slog.Logger) string {
	mime := strings.TrimSpace(h.Header.Get("Content-Type"))
	if mime != "" && mime != "application/octet-stream" {
		return mime
	}
	f, err := h.Open()
	if err != nil {
		return mime
	}
	defer closeWithLog(f, "upload sniff", logger)
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if sniffed, ok := allowedImageMIME(head[:n]); ok {
		return sniffed
	}
	return mime
}

func (s *Server) handleCollectPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	base, err := s.layoutFor(r, "collect", "New Photo")
	if err != nil {
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		s.logger.Error("collect page failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{
			"Layout":      base,
			"Snapshot":    sess.wf.Snapshot(),
			"MaxUploadMB": s.maxUpload / (1024 * 1024),
		},
		"base.html", "pages/collect.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleCollectState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	writeJSON(w, http.StatusOK, sess.wf.Snapshot(), s.logger)
}

// handleCollectPreview serves the decoded preview image of the current attempt.
func (s *Server) handleCollectPreview(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.lookup(r)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	snap := sess.wf.Snapshot()
	if snap.Preview == "" {
		http.NotFound(w, r)
		return
	}
	mime, data, err := imaging.DecodeDataURL(snap.Preview)
	if err != nil {
		http.Error(w, "invalid preview", http.StatusInternalServerError)
		s.logger.Error("decode preview failed", "error", err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write preview failed", "error", err)
	}
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, 4*s.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(s.maxUpload + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			// Let the workflow reject it so the error shows on the page.
			err = sess.wf.SelectFile(workflow.File{Size: tooBig.Limit + 1})
			s.writeWorkflowResult(w, sess, err)
			return
		}
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo file required", http.StatusBadRequest)
		return
	}
	closeWithLog(file, "upload file", s.logger)

	err = sess.wf.SelectFile(workflow.File{
		Name:     header.Filename,
		MIMEType: declaredMIME(header, s.logger),
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	})
	s.writeWorkflowResult(w, sess, err)
}

// handleUpdateFields applies every known review field present in the form.
// A request with field and value sets that single field.
func (s *Server) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	if name := r.PostForm.Get("field"); name != "" {
		err := sess.wf.UpdateField(workflow.Field(name), r.PostForm.Get("value"))
		s.writeWorkflowResult(w, sess, err)
		return
	}

	var err error
	for _, f := range []workflow.Field{
		workflow.FieldLicensePlate,
		workflow.FieldVehicleModel,
		workflow.FieldDescription,
		workflow.FieldTags,
	} {
		if !r.PostForm.Has(string(f)) {
			continue
		}
		if err = sess.wf.UpdateField(f, r.PostForm.Get(string(f))); err != nil {
			break
		}
	}
	s.writeWorkflowResult(w, sess, err)
}

func (s *Server) handleConfirmSave(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	allow, _ := strconv.ParseBool(r.FormValue("allowEmptyPlate"))
	s.writeWorkflowResult(w, sess, sess.wf.ConfirmSave(allow))
}

func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	s.writeWorkflowResult(w, sess, sess.wf.Retake())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	s.writeWorkflowResult(w, sess, sess.wf.Reset())
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	s.writeWorkflowResult(w, sess, sess.wf.DismissError())
}

type workflowResponse struct {
	Error    string            `json:"error,omitempty"`
	Snapshot workflow.Snapshot `json:"snapshot"`
}

// writeWorkflowResult replies with the session's snapshot, plus the error
// and a matching status when the operation was refused.
func (s *Server) writeWorkflowResult(w http.ResponseWriter, sess *session, err error) {
	resp := workflowResponse{Snapshot: sess.wf.Snapshot()}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = workflowStatus(err)
	}
	writeJSON(w, status, resp, s.logger)
}

func workflowStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotImage), errors.Is(err, workflow.ErrTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrPlateConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write json failed", "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
