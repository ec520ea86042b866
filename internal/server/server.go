// Package server provides the HTTP API for betty.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/chat"
	"github.com/fyrsmithlabs/betty/internal/ingest"
	"github.com/fyrsmithlabs/betty/internal/llm"
	"github.com/fyrsmithlabs/betty/internal/retrieval"
)

// Retriever is the retrieval surface exposed over HTTP.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
	SinglePass(ctx context.Context, query string, limit int) ([]retrieval.Chunk, error)
}

// ChatService runs chat turns.
type ChatService interface {
	AskTurn(ctx context.Context, turn chat.Turn) (*chat.Response, error)
}

// Ingester loads text into the knowledge base.
type Ingester interface {
	IngestText(ctx context.Context, filename, text string) (*ingest.FileResult, error)
}

// Server provides HTTP endpoints for betty.
type Server struct {
	echo      *echo.Echo
	chat      ChatService
	retriever Retriever
	ingester  Ingester
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the HTTP server.
func NewServer(chatSvc ChatService, retriever Retriever, ingester Ingester, logger *zap.Logger, cfg *Config) (*Server, error) {
	if chatSvc == nil {
		return nil, errors.New("chat service is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if ingester == nil {
		return nil, errors.New("ingester is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8484,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		chat:      chatSvc,
		retriever: retriever,
		ingester:  ingester,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat", s.handleChat)
	v1.POST("/search", s.handleSearch)
	v1.POST("/documents", s.handleDocuments)
}

// ChatMessage is one prior conversation turn in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for POST /api/v1/chat.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`

	// UseRAG toggles knowledge base retrieval for this turn. Defaults to
	// true when omitted.
	UseRAG *bool `json:"use_rag,omitempty"`
}

// ChatResponse is the response body for POST /api/v1/chat.
type ChatResponse struct {
	Response  string   `json:"response"`
	Sources   []string `json:"sources,omitempty"`
	MultiPass bool     `json:"multi_pass"`
	Model     string   `json:"model"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`

	// Limit caps results for focused searches; ignored when the query
	// routes to multi-pass retrieval. Zero uses the configured default.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is one entry in a search response.
type SearchResult struct {
	Content  string  `json:"content"`
	Filename string  `json:"filename,omitempty"`
	Score    float32 `json:"score"`
}

// SearchResponse is the response body for POST /api/v1/search.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Sources   []string       `json:"sources,omitempty"`
	MultiPass bool           `json:"multi_pass"`
}

// DocumentRequest is the request body for POST /api/v1/documents.
type DocumentRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DocumentResponse is the response body for POST /api/v1/documents.
type DocumentResponse struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	turn := chat.Turn{
		Message:          req.Message,
		DisableRetrieval: req.UseRAG != nil && !*req.UseRAG,
	}
	for _, m := range req.History {
		role := llm.RoleUser
		if m.Role == string(llm.RoleAssistant) {
			role = llm.RoleAssistant
		}
		turn.History = append(turn.History, llm.Message{Role: role, Content: m.Content})
	}

	resp, err := s.chat.AskTurn(c.Request().Context(), turn)
	if err != nil {
		s.logger.Error("chat turn failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "chat failed")
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response:  resp.Text,
		Sources:   resp.Sources,
		MultiPass: resp.MultiPass,
		Model:     resp.Model,
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	ctx := c.Request().Context()

	var result *retrieval.Result
	var err error
	if req.Limit > 0 {
		var chunks []retrieval.Chunk
		chunks, err = s.retriever.SinglePass(ctx, req.Query, req.Limit)
		if err == nil {
			_, sources := retrieval.AssembleContext(chunks)
			result = &retrieval.Result{Chunks: chunks, Sources: sources}
		}
	} else {
		result, err = s.retriever.Retrieve(ctx, req.Query)
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	results := make([]SearchResult, len(result.Chunks))
	for i, chunk := range result.Chunks {
		results[i] = SearchResult{
			Content:  chunk.Content,
			Filename: chunk.Filename(),
			Score:    chunk.Score,
		}
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Results:   results,
		Sources:   result.Sources,
		MultiPass: result.MultiPass,
	})
}

func (s *Server) handleDocuments(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid document request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Filename == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename and content fields are required")
	}

	result, err := s.ingester.IngestText(c.Request().Context(), req.Filename, req.Content)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	return c.JSON(http.StatusCreated, DocumentResponse{
		Filename: result.Filename,
		Chunks:   result.Chunks,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
