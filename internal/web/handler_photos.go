package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/imaging"
	"github.com/vbonduro/clandphoto/internal/store"
)

// photoOr404 loads the {id} photo, replying 404 when it does not exist.
func (s *Server) photoOr404(w http.ResponseWriter, r *http.Request) *domain.PhotoEntry {
	id := chi.URLParam(r, "id")
	photo, err := s.records.GetPhoto(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get photo", http.StatusInternalServerError)
		s.logger.Error("get photo failed", "photo_id", id, "error", err)
		return nil
	}
	if photo == nil {
		http.NotFound(w, r)
		return nil
	}
	return photo
}

// handlePhotoImage serves an embedded photo, or redirects to its remote URL.
func (s *Server) handlePhotoImage(w http.ResponseWriter, r *http.Request) {
	photo := s.photoOr404(w, r)
	if photo == nil {
		return
	}

	mime, data, err := imaging.DecodeDataURL(photo.ImageURL)
	if errors.Is(err, imaging.ErrNotDataURL) {
		http.Redirect(w, r, photo.ImageURL, http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, "invalid photo data", http.StatusInternalServerError)
		s.logger.Error("decode photo failed", "photo_id", photo.ID, "error", err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write photo failed", "photo_id", photo.ID, "error", err)
	}
}

// handlePhotoThumbnail serves a cached JPEG thumbnail of an embedded photo.
// Remote photos and formats the decoder does not know fall back to the
// full image.
func (s *Server) handlePhotoThumbnail(w http.ResponseWriter, r *http.Request) {
	photo := s.photoOr404(w, r)
	if photo == nil {
		return
	}

	_, data, err := imaging.DecodeDataURL(photo.ImageURL)
	if errors.Is(err, imaging.ErrNotDataURL) {
		http.Redirect(w, r, photo.ImageURL, http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, "invalid photo data", http.StatusInternalServerError)
		s.logger.Error("decode photo failed", "photo_id", photo.ID, "error", err)
		return
	}

	thumb, err := s.thumbs.Thumbnail(photo.ID, data)
	if errors.Is(err, imaging.ErrUnsupported) {
		http.Redirect(w, r, "/photos/"+photo.ID+"/image", http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to render thumbnail", http.StatusInternalServerError)
		s.logger.Error("thumbnail failed", "photo_id", photo.ID, "error", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(thumb); err != nil {
		s.logger.Error("write thumbnail failed", "photo_id", photo.ID, "error", err)
	}
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.records.RemovePhoto(r.Context(), id)
	if errors.Is(err, store.ErrPhotoNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete photo", http.StatusInternalServerError)
		s.logger.Error("delete photo failed", "photo_id", id, "error", err)
		return
	}
	s.thumbs.Forget(id)

	w.Header().Set("HX-Redirect", "/reports")
	w.WriteHeader(http.StatusOK)
}
