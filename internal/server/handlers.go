package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/compiler"
	"github.com/v0xg/hatter/internal/scraper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Success     bool                `json:"success"`
	URL         string              `json:"url"`
	Title       string              `json:"title,omitempty"`
	Fields      []scraper.FormField `json:"fields"`
	TotalFields int                 `json:"totalFields"`
}

type generateRequest struct {
	Target compiler.Target `json:"target"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "hatter API is running"})
}

func (s *Server) handleRunTest(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	plan, err := command.ParsePlan(body)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.svc.Run(c.Request.Context(), plan)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleScrapeForm(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	var req scrapeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed request body", "details": err.Error()})
		return
	}

	res, err := s.svc.Scrape(c.Request.Context(), req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scrapeResponse{
		Success:     true,
		URL:         res.URL,
		Title:       res.Title,
		Fields:      res.Fields,
		TotalFields: len(res.Fields),
	})
}

func (s *Server) handleGenerateScript(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed request body", "details": err.Error()})
		return
	}
	plan, err := command.ParsePlan(body)
	if err != nil {
		s.fail(c, err)
		return
	}

	script, err := s.svc.Compile(plan, req.Target)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "script": script})
}

// readBody reads the whole request body, answering 413 when it exceeds the
// configured limit.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		return body, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Request body too large"})
		return nil, false
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read request body", "details": err.Error()})
	return nil, false
}

// fail maps an invocation error onto a status code and JSON body.
func (s *Server) fail(c *gin.Context, err error) {
	var scrapeErr *scraper.ScrapeError
	switch {
	case command.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, scraper.ErrNoURL):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No URL provided"})
	case errors.Is(err, compiler.ErrUnknownTarget):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &scrapeErr):
		s.logger.Error("Scrape failed", zap.String("url", scrapeErr.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to scrape form", "details": err.Error()})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}
