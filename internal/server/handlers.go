package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service"
)

type createPostRequest struct {
	PropertyID     string     `json:"property_id" binding:"required"`
	Title          string     `json:"title" binding:"required"`
	TargetChannels []string   `json:"target_channels" binding:"required,min=1"`
	MediaKeys      []string   `json:"media_keys"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
}

type schedulePostRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type retryChannelsRequest struct {
	Channels []string `json:"channels" binding:"required,min=1"`
}

type createPropertyRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Address     string   `json:"address" binding:"required"`
	City        string   `json:"city" binding:"required"`
	Price       float64  `json:"price" binding:"required"`
	Currency    string   `json:"currency"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	AreaSqm     float64  `json:"area_sqm"`
	Amenities   []string `json:"amenities"`
	PhotoKeys   []string `json:"photo_keys"`
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.Orchestrator.CreateDraft(c.Request.Context(), service.CreateDraftParams{
		PropertyID:     req.PropertyID,
		Title:          req.Title,
		TargetChannels: req.TargetChannels,
		MediaKeys:      req.MediaKeys,
		ScheduledAt:    req.ScheduledAt,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (s *Server) handleListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	posts, total, err := s.Store.ListPosts(c.Request.Context(), service.PostFilter{
		Status:     c.Query("status"),
		PropertyID: c.Query("property_id"),
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
	})
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.Store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handlePublishPost(c *gin.Context) {
	post, err := s.Orchestrator.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handleSchedulePost(c *gin.Context) {
	var req schedulePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.Orchestrator.Schedule(c.Request.Context(), c.Param("id"), req.ScheduledAt)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handleCancelSchedule(c *gin.Context) {
	post, err := s.Orchestrator.CancelSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handleRetryChannels(c *gin.Context) {
	var req retryChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.Orchestrator.RetryChannels(c.Request.Context(), c.Param("id"), req.Channels)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handleArchivePost(c *gin.Context) {
	post, err := s.Orchestrator.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handlePostAnalytics(c *gin.Context) {
	summary, err := s.Collector.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCreateProperty(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := &models.Property{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Price:       req.Price,
		Currency:    req.Currency,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqm:     req.AreaSqm,
		Amenities:   req.Amenities,
		PhotoKeys:   req.PhotoKeys,
	}
	if property.Currency == "" {
		property.Currency = "USD"
	}

	if err := s.Store.CreateProperty(c.Request.Context(), property); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (s *Server) handleListProperties(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	properties, total, err := s.Store.ListProperties(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"total":      total,
		"page":       page,
		"per_page":   perPage,
	})
}

func (s *Server) handleGetProperty(c *gin.Context) {
	property, err := s.Store.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

func (s *Server) handleListChannels(c *gin.Context) {
	type channelInfo struct {
		Name     string `json:"name"`
		Language string `json:"language"`
		Metrics  bool   `json:"metrics"`
	}

	sources := s.Registry.MetricsSources()
	var channels []channelInfo
	for _, name := range s.Registry.Names() {
		pub, err := s.Registry.Get(name)
		if err != nil {
			continue
		}
		_, hasMetrics := sources[name]
		channels = append(channels, channelInfo{
			Name:     name,
			Language: pub.Language(),
			Metrics:  hasMetrics,
		})
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (s *Server) handleUploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("media/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.Media.Upload(c.Request.Context(), key, file, contentType); err != nil {
		s.Logger.Error("Media upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload media"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": s.Media.ResolveURL(key),
	})
}

// respondError maps service errors to HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPostArchived),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownChannel),
		errors.Is(err, service.ErrNoTargetChannels),
		errors.Is(err, service.ErrChannelNotTarget),
		errors.Is(err, service.ErrScheduleInPast):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.Logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
