package httpserver

import (
	"net/http"
)

func (s *Server) registerReportRoutes() {
	reports := tallyPrefix + "/reports"

	s.mux.HandleFunc("GET "+reports+"/candidates", s.handleCandidateTotals)
	s.mux.HandleFunc("GET "+reports+"/candidates/projection", s.handleCandidateProjection)
	s.mux.HandleFunc("POST "+reports+"/candidates/projection/refresh", s.handleRefreshProjection)
	s.mux.HandleFunc("GET "+reports+"/turnout/{kind}", s.handleAreaTurnout)
	s.mux.HandleFunc("GET "+reports+"/summary/{kind}", s.handleAreaSummary)
	s.mux.HandleFunc("GET "+reports+"/duplicates", s.handleDuplicates)
	s.mux.HandleFunc("GET "+reports+"/discrepancies", s.handleDiscrepancies)
	s.mux.HandleFunc("GET "+reports+"/export/{kind}", s.handleExportReport)
}

func (s *Server) handleCandidateTotals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.CandidateTotalsHandler(
		r.Context(),
		r.PathValue("tally_id"),
		r.URL.Query().Get("ballot_id"),
		queryList(r, "exclude"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCandidateProjection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.CandidateProjectionHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshProjection(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}
	resp, err := s.tally.RefreshProjectionHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAreaTurnout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.AreaTurnoutHandler(
		r.Context(),
		r.PathValue("tally_id"),
		r.PathValue("kind"),
		r.URL.Query().Get("ballot_id"),
		queryList(r, "exclude"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAreaSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.AreaSummaryHandler(
		r.Context(),
		r.PathValue("tally_id"),
		r.PathValue("kind"),
		r.URL.Query().Get("ballot_id"),
		queryList(r, "exclude"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.DuplicatesHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiscrepancies(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.DiscrepanciesHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.ExportReportHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("kind"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
