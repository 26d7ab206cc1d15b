package httpserver

import (
	"net/http"

	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

func (s *Server) registerReferenceRoutes() {
	center := tallyPrefix + "/centers/{code}"
	ballot := tallyPrefix + "/ballots/{number}"

	s.mux.HandleFunc("POST "+tallyPrefix+"/reference/import", s.handleImportReference)
	s.mux.HandleFunc("GET "+center, s.handleGetCenter)
	s.mux.HandleFunc("POST "+center+"/enabled", s.handleSetCenterEnabled)
	s.mux.HandleFunc("POST "+center+"/name", s.handleRenameCenter)
	s.mux.HandleFunc("GET "+center+"/stations", s.handleListStations)
	s.mux.HandleFunc("POST "+center+"/stations/{station}/enabled", s.handleSetStationEnabled)
	s.mux.HandleFunc("GET "+center+"/stations/{station}/progress", s.handleStationProgress)
	s.mux.HandleFunc("GET "+ballot, s.handleGetBallot)
	s.mux.HandleFunc("GET "+ballot+"/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST "+ballot+"/enabled", s.handleSetBallotEnabled)
	s.mux.HandleFunc("GET "+tallyPrefix+"/comments/{kind}/{entity_id}", s.handleComments)

	s.mux.HandleFunc("GET "+apiPrefix+"/quarantine-checks", s.handleListQuarantineChecks)
	s.mux.HandleFunc("PUT "+apiPrefix+"/quarantine-checks/{check_id}", s.handleUpdateQuarantineCheck)
}

func (s *Server) handleImportReference(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.ImportReferenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.tally.ImportReferenceHandler(r.Context(), caller, r.PathValue("tally_id"), req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCenter(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	resp, err := s.tally.GetCenterHandler(r.Context(), r.PathValue("tally_id"), code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetCenterEnabled(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	var req httptransport.ToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.SetCenterEnabledHandler(r.Context(), caller, r.PathValue("tally_id"), code, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenameCenter(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	var req httptransport.RenameCenterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.RenameCenterHandler(r.Context(), caller, r.PathValue("tally_id"), code, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	resp, err := s.tally.ListStationsHandler(r.Context(), r.PathValue("tally_id"), code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetStationEnabled(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	station, ok := pathInt(w, r, "station")
	if !ok {
		return
	}
	var req httptransport.ToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.SetStationEnabledHandler(r.Context(), caller, r.PathValue("tally_id"), code, station, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStationProgress(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	station, ok := pathInt(w, r, "station")
	if !ok {
		return
	}
	resp, err := s.tally.StationProgressHandler(r.Context(), r.PathValue("tally_id"), code, station)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, r, "number")
	if !ok {
		return
	}
	resp, err := s.tally.GetBallotHandler(r.Context(), r.PathValue("tally_id"), number)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, r, "number")
	if !ok {
		return
	}
	resp, err := s.tally.ListCandidatesHandler(r.Context(), r.PathValue("tally_id"), number)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetBallotEnabled(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	number, ok := pathInt(w, r, "number")
	if !ok {
		return
	}
	var req httptransport.ToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.SetBallotEnabledHandler(r.Context(), caller, r.PathValue("tally_id"), number, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.CommentsHandler(r.Context(), r.PathValue("tally_id"), r.PathValue("kind"), r.PathValue("entity_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListQuarantineChecks(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.ListQuarantineChecksHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateQuarantineCheck(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req httptransport.UpdateQuarantineCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.tally.UpdateQuarantineCheckHandler(r.Context(), caller, r.PathValue("check_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
