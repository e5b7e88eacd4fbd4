package kernel

import (
	"net/http"
)

// handleUploadFile streams the request body straight through to the object
// store under the given key. Proposals, invoices, creatives, and reports all
// go through here; the workflow later verifies the keys exist.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing object key", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.files.Put(r.Context(), key, r.Body, contentType); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing object key", http.StatusBadRequest)
		return
	}
	if err := s.files.Delete(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
