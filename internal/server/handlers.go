package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaramelBytes/smartdoc/internal/actions"
	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/classify"
	"github.com/KaramelBytes/smartdoc/internal/explore"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/insight"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

// detectSampleRows bounds the rows handed to the classifier.
const detectSampleRows = 100

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "datasets": len(s.reg.IDs())})
}

type uploadResponse struct {
	UploadID      string         `json:"upload_id"`
	DatasetID     string         `json:"dataset_id,omitempty"`
	Filename      string         `json:"filename"`
	FilesizeBytes int            `json:"filesize_bytes"`
	Filetype      string         `json:"filetype"`
	UploadedAt    time.Time      `json:"uploaded_at"`
	Scrutiny      *ingest.Report `json:"scrutiny"`
	Status        string         `json:"status"`
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, apperr.Validation("file", "larger than %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		s.fail(w, r, apperr.Validation("file", "multipart field \"file\" is required"))
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(w, r, apperr.Validation("file", "read upload: %v", err))
		return
	}

	id := uuid.NewString()
	rep, parsed := ingest.Scrutinize(hdr.Filename, data, s.now(), s.cfg.Ingest)
	resp := uploadResponse{
		UploadID:      id,
		Filename:      hdr.Filename,
		FilesizeBytes: len(data),
		Filetype:      rep.FileType,
		UploadedAt:    rep.UploadTime,
		Scrutiny:      rep,
		Status:        "ok",
	}
	u := upload{Name: hdr.Filename, FileType: ingest.Format(hdr.Filename), Excerpt: rep.SummaryExcerpt, Blocks: rep.TextBlocks}
	if parsed != nil {
		s.reg.Put(id, parsed.Headers, parsed.Rows)
		resp.DatasetID = id
		u.Tabular = true
	}
	s.remember(id, u)
	s.logger.Info("upload scrutinized", "upload_id", id, "file", hdr.Filename, "bytes", len(data), "tabular", u.Tabular)
	writeJSON(w, http.StatusOK, resp)
}

type detectRequest struct {
	UploadID   string         `json:"upload_id,omitempty"`
	Headers    []string       `json:"headers,omitempty"`
	SampleRows ingest.Records `json:"sample_rows"`
	TextBlocks []string       `json:"text_blocks,omitempty"`
}

func (s *Server) detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	headers, sample, blocks := req.Headers, req.SampleRows.Rows, req.TextBlocks
	if len(headers) == 0 {
		headers = req.SampleRows.Keys
	}
	if req.UploadID != "" {
		var err error
		headers, sample, blocks, err = s.uploadSample(req.UploadID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if len(headers) == 0 && len(blocks) == 0 {
		s.fail(w, r, apperr.Validation("headers", "headers, sample_rows or text_blocks are required"))
		return
	}
	if len(sample) > detectSampleRows {
		sample = sample[:detectSampleRows]
	}
	writeJSON(w, http.StatusOK, classify.Detect(s.classifier, headers, sample, blocks))
}

// uploadSample returns what detection sees of an earlier upload.
func (s *Server) uploadSample(id string) ([]string, []ingest.Row, []string, error) {
	var headers []string
	var sample []ingest.Row
	err := s.reg.Read(id, func(ds store.Dataset) error {
		headers = append(headers, ds.Headers...)
		sample = ingest.CloneRows(ds.Rows[:min(len(ds.Rows), detectSampleRows)])
		return nil
	})
	if err == nil {
		return headers, sample, nil, nil
	}
	u, ok := s.lookupUpload(id)
	if !ok {
		return nil, nil, nil, &apperr.NotFoundError{Kind: "upload", ID: id}
	}
	if len(u.Blocks) == 0 {
		return nil, nil, nil, &apperr.UnsupportedFormatError{Format: u.FileType, Err: errors.New("no tabular data or text extracted")}
	}
	return nil, nil, u.Blocks, nil
}

type analyzeContext struct {
	Persona  string `json:"persona,omitempty"`
	DataType string `json:"data_type,omitempty"`
}

type analyzeRequest struct {
	UploadID   string         `json:"upload_id,omitempty"`
	DatasetID  string         `json:"dataset_id,omitempty"`
	Headers    []string       `json:"headers,omitempty"`
	Rows       ingest.Records `json:"rows"`
	TextBlocks []string       `json:"text_blocks,omitempty"`
	Context    analyzeContext `json:"context"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	persona, err := insight.ParsePersona(req.Context.Persona)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	job := insight.Request{Persona: persona, DataType: req.Context.DataType}

	id := req.DatasetID
	if id == "" {
		id = req.UploadID
	}
	switch {
	case id != "":
		ds, err := s.reg.Get(id)
		if apperr.IsNotFound(err) {
			u, ok := s.lookupUpload(id)
			if !ok {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, insight.AnalyzeDocument(u.FileType, u.Excerpt, persona))
			return
		}
		job.DatasetID, job.Headers, job.Rows = id, ds.Headers, ds.Rows
		if u, ok := s.lookupUpload(id); ok {
			job.FileType = u.FileType
		}
	case len(req.Headers) > 0 || len(req.Rows.Rows) > 0:
		job.Headers, job.Rows = req.Headers, req.Rows.Rows
		if len(job.Headers) == 0 {
			job.Headers = req.Rows.Keys
		}
	default:
		s.fail(w, r, apperr.Validation("body", "upload_id, dataset_id or headers/rows are required"))
		return
	}

	if job.DataType == "" {
		sample := job.Rows[:min(len(job.Rows), detectSampleRows)]
		job.DataType = classify.Detect(s.classifier, job.Headers, sample, req.TextBlocks).DataType
	}
	rep, err := insight.Analyze(r.Context(), job, s.cfg.Analysis)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type exploreRequest struct {
	DatasetID string        `json:"dataset_id"`
	Query     explore.Query `json:"query"`
}

func (s *Server) explore(w http.ResponseWriter, r *http.Request) {
	var req exploreRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.DatasetID == "" {
		s.fail(w, r, apperr.Validation("dataset_id", "is empty"))
		return
	}
	res, err := explore.Execute(s.reg, req.DatasetID, req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) deduplicate(w http.ResponseWriter, r *http.Request) {
	var req actions.DedupeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("confirm") == "true" {
		dry := false
		req.DryRun = &dry
	}
	res, err := s.exec.Deduplicate(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fillMissing(w http.ResponseWriter, r *http.Request) {
	var req actions.FillRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.exec.FillMissing(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) removeOutliers(w http.ResponseWriter, r *http.Request) {
	var req actions.OutlierRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.exec.RemoveOutliers(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) exportSegment(w http.ResponseWriter, r *http.Request) {
	var req actions.ExportRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.exec.ExportSegment(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type correlateRequest struct {
	DatasetID string   `json:"dataset_id"`
	Target    string   `json:"target,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func (s *Server) correlate(w http.ResponseWriter, r *http.Request) {
	var req correlateRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.DatasetID == "" {
		s.fail(w, r, apperr.Validation("dataset_id", "is empty"))
		return
	}
	threshold := s.cfg.CorrelationThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		s.fail(w, r, apperr.Validation("threshold", "must be within [0,1], got %g", threshold))
		return
	}
	var resp *analysis.CorrelationReport
	err := s.reg.Read(req.DatasetID, func(ds store.Dataset) error {
		var err error
		resp, err = analysis.Correlate(ds.Headers, ds.Rows, req.Target, threshold)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type chartsRequest struct {
	DatasetID string   `json:"dataset_id,omitempty"`
	Columns   []string `json:"columns,omitempty"`
}

func (s *Server) suggestCharts(w http.ResponseWriter, r *http.Request) {
	var req chartsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	cols := req.Columns
	if req.DatasetID != "" {
		ds, err := s.reg.Get(req.DatasetID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cols = ds.Headers
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": insight.SuggestCharts(cols)})
}

type explainRequest struct {
	DatasetID string         `json:"dataset_id,omitempty"`
	Headers   []string       `json:"headers,omitempty"`
	Rows      ingest.Records `json:"rows"`
	Question  string         `json:"question"`
}

func (s *Server) explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Question == "" {
		s.fail(w, r, apperr.Validation("question", "is empty"))
		return
	}
	headers, rows := req.Headers, req.Rows.Rows
	if len(headers) == 0 {
		headers = req.Rows.Keys
	}
	if req.DatasetID != "" {
		var out insight.Explanation
		err := s.reg.Read(req.DatasetID, func(ds store.Dataset) error {
			out = insight.Explain(ds.Headers, ds.Rows, req.Question)
			return nil
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusOK, insight.Explain(headers, rows, req.Question))
}

type datasetResponse struct {
	ID        string            `json:"id"`
	Headers   []string          `json:"headers"`
	RowCount  int               `json:"row_count"`
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Views     []store.SavedView `json:"views"`
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp datasetResponse
	err := s.reg.Read(id, func(ds store.Dataset) error {
		resp = datasetResponse{
			ID:        ds.ID,
			Headers:   append([]string(nil), ds.Headers...),
			RowCount:  len(ds.Rows),
			Version:   ds.Version,
			UpdatedAt: ds.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if resp.Views, err = s.reg.Views(id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
