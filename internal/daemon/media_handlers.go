package daemon

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mediastore/internal/catalog"
	"mediastore/internal/media"
	"mediastore/internal/services"
	"mediastore/internal/variants"
)

type mediaResponse struct {
	Media *catalog.Asset `json:"media"`
}

type mediaListResponse struct {
	Items      []*catalog.Asset   `json:"items"`
	Pagination catalog.Pagination `json:"pagination"`
}

type variantResponse struct {
	Variants *variants.Set `json:"variants"`
}

func (s *apiServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleMediaList(w, r)
	case http.MethodPost:
		s.handleMediaUpload(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleMediaList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	items, pagination, err := s.daemon.media.List(r.Context(), query.Get("folder"), page, limit)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	if items == nil {
		items = []*catalog.Asset{}
	}
	s.writeJSON(w, http.StatusOK, mediaListResponse{Items: items, Pagination: pagination})
}

func (s *apiServer) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	data, header, folder, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	asset, err := s.daemon.media.Upload(r.Context(), media.UploadRequest{
		Data:     data,
		Filename: header.filename,
		MimeType: header.mimeType,
		Folder:   folder,
	})
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, mediaResponse{Media: asset})
}

func (s *apiServer) handleMediaItem(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/media/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "media asset not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid media asset id")
		return
	}
	ctx := services.WithAssetID(r.Context(), id)

	switch r.Method {
	case http.MethodGet:
		asset, err := s.daemon.media.Get(ctx, id)
		if err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, mediaResponse{Media: asset})
	case http.MethodDelete:
		if err := s.daemon.media.Delete(ctx, id); err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleVariants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleVariantCreate(w, r)
	case http.MethodDelete:
		s.handleVariantDelete(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleVariantCreate(w http.ResponseWriter, r *http.Request) {
	data, header, folder, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	quality, _ := strconv.Atoi(r.FormValue("quality"))
	opts := variants.Options{
		Folder:    folder,
		Subfolder: r.FormValue("subfolder"),
		Quality:   quality,
	}

	if single := r.FormValue("single"); single == "1" || strings.EqualFold(single, "true") {
		variant, err := s.daemon.variants.OptimizeSingle(data, header.filename, opts)
		if err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]any{"variant": variant})
		return
	}

	set, err := s.daemon.variants.OptimizeAndSave(data, header.filename, opts)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, variantResponse{Variants: set})
}

func (s *apiServer) handleVariantDelete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folder, err := s.validator.NormalizeFolder(query.Get("folder"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	if err := s.daemon.variants.DeleteFolder(folder, query.Get("subfolder")); err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type uploadHeader struct {
	filename string
	mimeType string
}

// readUpload pulls the multipart "file" part out of the request. The declared
// type, extension, and size are checked before the payload is read so an
// obviously bad upload is rejected from its headers alone.
func (s *apiServer) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, uploadHeader, string, bool) {
	if s.validator.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.validator.MaxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return nil, uploadHeader{}, "", false
		}
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return nil, uploadHeader{}, "", false
	}
	defer file.Close()

	meta := uploadHeader{
		filename: header.Filename,
		mimeType: header.Header.Get("Content-Type"),
	}

	if err := s.validator.ValidateType(meta.mimeType, meta.filename); err != nil {
		s.writePipelineError(w, r, err)
		return nil, uploadHeader{}, "", false
	}
	if header.Size > 0 {
		if err := s.validator.ValidateSize(header.Size); err != nil {
			s.writePipelineError(w, r, err)
			return nil, uploadHeader{}, "", false
		}
	}
	folder, err := s.validator.NormalizeFolder(r.FormValue("folder"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return nil, uploadHeader{}, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return nil, uploadHeader{}, "", false
		}
		s.writeError(w, http.StatusBadRequest, "failed to read upload")
		return nil, uploadHeader{}, "", false
	}

	return data, meta, folder, true
}
