package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/hlog"
	"github.com/seanblong/docask/internal/extract"
	"github.com/seanblong/docask/internal/qa"
	"github.com/seanblong/docask/internal/retrieval"
	"github.com/seanblong/docask/pkg/models"
)

type askTextRequest struct {
	PDFText  string `json:"pdfText"`
	Question string `json:"question"`
	DocName  string `json:"docName"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type askRequest struct {
	Question string `json:"question"`
}

type retrieveRequest struct {
	Text  string `json:"text"`
	Query string `json:"query"`
}

func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if s.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.RequestTimeout)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Detail: err.Error()})
		return false
	}
	return true
}

// handleAskText answers a question over text sent in the request; nothing is stored.
func (s *Server) handleAskText(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
		return
	}

	var req askTextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PDFText) == "" || strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid payload: pdfText (string) and question (string) are required"})
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	ans, err := s.QA.AskText(ctx, req.DocName, req.PDFText, req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("path", ans.Path).Int("chunks", len(ans.Chunks)).Msg("answered")
	writeJSON(w, http.StatusOK, askResponse{Answer: ans.Text})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ret := s.QA.Retriever
	if ret == nil {
		ret = retrieval.Default()
	}
	writeJSON(w, http.StatusOK, ret.Retrieve(req.Text, req.Query))
}

// readUpload returns the document name and text from a multipart "file"
// field or from the raw request body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
			return "", "", fmt.Errorf("%w: %w", extract.ErrUnsupported, err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("%w: missing file field", extract.ErrNoText)
		}
		defer f.Close()

		name := filepath.Base(hdr.Filename)
		if v := r.FormValue("name"); v != "" {
			name = v
		}
		if !extract.Supported(hdr.Filename) {
			return "", "", fmt.Errorf("%w: %s", extract.ErrUnsupported, filepath.Ext(hdr.Filename))
		}
		if extract.IsPDF(hdr.Filename) {
			text, err := extract.FromPDFReader(f, hdr.Size)
			return name, text, err
		}
		b, err := io.ReadAll(f)
		if err != nil {
			return "", "", err
		}
		text, err := extract.FromText(string(b))
		return name, text, err
	}

	name := r.URL.Query().Get("name")
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", err
	}
	if mediaType == "application/pdf" || extract.IsPDF(name) {
		text, err := extract.FromPDFReader(bytes.NewReader(b), int64(len(b)))
		return name, text, err
	}
	text, err := extract.FromText(string(b))
	return name, text, err
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, text, err := s.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "document too large"})
			return
		}
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	doc, err := s.QA.Upload(ctx, name, text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.QA.Store.ListDocuments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.QA.Store.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.QA.Store.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.QA.Store.GetDocument(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	msgs, err := s.QA.Store.ListMessages(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	ans, err := s.QA.Ask(ctx, r.PathValue("id"), req.Question)
	if err != nil {
		if errors.Is(err, qa.ErrProvider) {
			hlog.FromRequest(r).Warn().Err(err).Msg("provider failed")
			writeJSON(w, http.StatusBadGateway, ans)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
