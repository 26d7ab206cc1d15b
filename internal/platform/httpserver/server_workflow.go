package httpserver

import (
	"context"
	"net/http"
	"strconv"

	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

func (s *Server) registerWorkflowRoutes() {
	forms := tallyPrefix + "/forms"
	form := forms + "/{form_id}"

	s.mux.HandleFunc("POST "+forms+"/receive", s.handleReceiveForm)
	s.mux.HandleFunc("GET "+forms, s.handleListForms)
	s.mux.HandleFunc("GET "+tallyPrefix+"/barcodes/{barcode}", s.handleLookupBarcode)
	s.mux.HandleFunc("GET "+form, s.handleGetForm)
	s.mux.HandleFunc("DELETE "+form, formNoContent(s, s.tally.RemoveFormHandler))
	s.mux.HandleFunc("GET "+form+"/history", s.handleStateHistory)
	s.mux.HandleFunc("GET "+tallyPrefix+"/revisions/{kind}/{entity_id}", s.handleRevisions)

	// intake
	s.mux.HandleFunc("POST "+form+"/assign", formWithBody(s, s.tally.AssignCenterStationHandler))
	s.mux.HandleFunc("POST "+form+"/intake/confirm", formAction(s, s.tally.ConfirmIntakeHandler))
	s.mux.HandleFunc("POST "+form+"/intake/reject", formWithBody(s, s.tally.RejectIntakeHandler))
	s.mux.HandleFunc("POST "+form+"/clearance", formWithBody(s, s.tally.ReferToClearanceHandler))
	s.mux.HandleFunc("POST "+form+"/duplicate-reviewed", formWithBody(s, s.tally.MarkDuplicateReviewedHandler))

	// registry
	s.mux.HandleFunc("POST "+form+"/state", formWithBody(s, s.tally.SetStateHandler))
	s.mux.HandleFunc("POST "+form+"/actor", formNoContent(s, s.tally.RecordActorHandler))

	// data entry and corrections
	s.mux.HandleFunc("POST "+form+"/entries/first", formWithBody(s, s.tally.SubmitFirstEntryHandler))
	s.mux.HandleFunc("POST "+form+"/entries/second", formWithBody(s, s.tally.SubmitSecondEntryHandler))
	s.mux.HandleFunc("GET "+form+"/corrections", s.handleCorrectionsView)
	s.mux.HandleFunc("POST "+form+"/corrections", formWithBody(s, s.tally.SubmitCorrectionsHandler))
	s.mux.HandleFunc("POST "+form+"/corrections/reject", formWithBody(s, s.tally.RejectCorrectionsHandler))
	s.mux.HandleFunc("POST "+form+"/corrections/abort", formNoContent(s, s.tally.AbortCorrectionsHandler))

	// quality control and archive
	s.mux.HandleFunc("POST "+form+"/quality-control/start", formAction(s, s.tally.StartQualityControlHandler))
	s.mux.HandleFunc("POST "+form+"/quality-control", formWithBody(s, s.tally.SubmitQualityControlHandler))
	s.mux.HandleFunc("POST "+form+"/archive", formAction(s, s.tally.ArchiveHandler))
	s.mux.HandleFunc("POST "+form+"/reopen", formWithBody(s, s.tally.ReopenArchivedHandler))

	// disputes
	s.mux.HandleFunc("POST "+form+"/clearance/review", formWithBody(s, s.tally.ReviewClearanceHandler))
	s.mux.HandleFunc("POST "+form+"/clearance/implement", formWithBody(s, s.tally.ImplementClearanceHandler))
	s.mux.HandleFunc("POST "+form+"/clearance/return", formWithBody(s, s.tally.ReturnClearanceHandler))
	s.mux.HandleFunc("POST "+form+"/audit/escalate", formWithBody(s, s.tally.EscalateToAuditHandler))
	s.mux.HandleFunc("POST "+form+"/audit/review", formWithBody(s, s.tally.ReviewAuditHandler))
	s.mux.HandleFunc("POST "+form+"/audit/forward", formWithBody(s, s.tally.ForwardAuditHandler))
	s.mux.HandleFunc("POST "+form+"/audit/confirm", formWithBody(s, s.tally.ConfirmAuditHandler))
	s.mux.HandleFunc("POST "+form+"/audit/accept", formWithBody(s, s.tally.AcceptAuditHandler))
}

// formAction adapts a body-less form command.
func formAction[Resp any](
	s *Server,
	call func(context.Context, httptransport.Caller, string, string) (Resp, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		resp, err := call(r.Context(), caller, r.PathValue("tally_id"), r.PathValue("form_id"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// formWithBody adapts a form command that takes a JSON request.
func formWithBody[Req any, Resp any](
	s *Server,
	call func(context.Context, httptransport.Caller, string, string, Req) (Resp, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req Req
		if !decodeBody(w, r, &req) {
			return
		}
		resp, err := call(r.Context(), caller, r.PathValue("tally_id"), r.PathValue("form_id"), req)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func formNoContent(
	s *Server,
	call func(context.Context, httptransport.Caller, string, string) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		if err := call(r.Context(), caller, r.PathValue("tally_id"), r.PathValue("form_id")); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleReceiveForm(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.ReceiveFormRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.ReceiveFormHandler(r.Context(), caller, r.PathValue("tally_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}
	resp, err := s.tally.ListFormsHandler(
		r.Context(),
		r.PathValue("tally_id"),
		queryList(r, "state"),
		query.Get("ballot_id"),
		query.Get("center_id"),
		limit,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLookupBarcode(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.LookupBarcodeHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("barcode"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.GetFormHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("form_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStateHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.StateHistoryHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("form_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.RevisionsHandler(
		r.Context(),
		r.PathValue("tally_id"),
		r.PathValue("kind"),
		r.PathValue("entity_id"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCorrectionsView(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.CorrectionsViewHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("form_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
