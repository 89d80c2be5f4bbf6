// Package receiver implements the OTLP logs ingestion endpoints feeding the
// diagnostics buffer.
package receiver

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/fidde/logring/internal/buffer"
)

// HTTPReceiver handles OTLP/HTTP log export requests.
type HTTPReceiver struct {
	buf    *buffer.Buffer
	server *http.Server
}

// NewHTTPReceiver creates an HTTP receiver writing into buf.
func NewHTTPReceiver(addr string, buf *buffer.Buffer) *HTTPReceiver {
	r := &HTTPReceiver{buf: buf}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Post("/v1/logs", r.handleLogs)
	router.Get("/health", r.handleHealth)

	r.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return r
}

// Start starts the HTTP server.
func (r *HTTPReceiver) Start() error {
	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (r *HTTPReceiver) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

// handleLogs handles OTLP logs export requests. Payloads are protobuf by
// default with a protojson fallback, optionally gzip-encoded.
func (r *HTTPReceiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	reader := req.Body
	if req.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to decompress: %v", err), http.StatusBadRequest)
			return
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read body: %v", err), http.StatusBadRequest)
		return
	}
	defer req.Body.Close()

	var exportReq collogspb.ExportLogsServiceRequest
	if err := proto.Unmarshal(body, &exportReq); err != nil {
		unmarshaler := protojson.UnmarshalOptions{DiscardUnknown: true}
		if jsonErr := unmarshaler.Unmarshal(body, &exportReq); jsonErr != nil {
			log.Printf("Failed to parse logs request: protobuf error: %v, json error: %v", err, jsonErr)
			http.Error(w, fmt.Sprintf("Failed to parse request: protobuf error: %v, json error: %v", err, jsonErr), http.StatusBadRequest)
			return
		}
	}

	ingestLogs(r.buf, &exportReq)

	r.writeResponse(w, &collogspb.ExportLogsServiceResponse{})
}

// handleHealth handles health check requests.
func (r *HTTPReceiver) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeResponse writes a protobuf response.
// OTLP always uses protobuf for responses.
func (r *HTTPReceiver) writeResponse(w http.ResponseWriter, resp proto.Message) {
	respBytes, err := proto.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}

// ingestLogs walks an export request and adds every record to the buffer.
func ingestLogs(buf *buffer.Buffer, req *collogspb.ExportLogsServiceRequest) int {
	added := 0
	for _, resourceLogs := range req.GetResourceLogs() {
		resourceAttrs := extractAttributes(resourceLogs.GetResource().GetAttributes())

		for _, scopeLogs := range resourceLogs.GetScopeLogs() {
			scopeName := scopeLogs.GetScope().GetName()

			for _, record := range scopeLogs.GetLogRecords() {
				buf.Add(entryFromRecord(record, scopeName, resourceAttrs))
				added++
			}
		}
	}
	return added
}
