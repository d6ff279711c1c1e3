package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
)

const clickTimeout = 5 * time.Second

type URLService interface {
	CreateShortURL(ctx context.Context, req *model.CreateURLRequest) (*model.ShortenResponse, error)
	Resolve(ctx context.Context, shortCode string) (*model.ShortURL, error)
	ResolveTarget(ctx context.Context, shortCode string) (*model.ShortURL, error)
	RecordClick(ctx context.Context, url *model.ShortURL) (bool, error)
	GetStats(url *model.ShortURL) model.Stats
}

type URLHandler struct {
	urlService URLService
	logger     *slog.Logger
}

func NewURLHandler(urlService URLService, logger *slog.Logger) *URLHandler {
	return &URLHandler{
		urlService: urlService,
		logger:     logger,
	}
}

// Shorten handles POST /api/shorten.
func (h *URLHandler) Shorten(c *gin.Context) {
	var req model.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure(bindErrorMessage(err)))
		return
	}

	response, err := h.urlService.CreateShortURL(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, "handler.Shorten", err)
		return
	}

	c.JSON(http.StatusCreated, model.Success("URL shortened successfully", response))
}

// Stats handles GET /api/stats/:shortCode.
func (h *URLHandler) Stats(c *gin.Context) {
	url, err := h.urlService.Resolve(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		h.handleError(c, "handler.Stats", err)
		return
	}

	c.JSON(http.StatusOK, model.Success("Statistics retrieved successfully", h.urlService.GetStats(url)))
}

// Redirect handles GET /:shortCode. The click is recorded before the
// redirect is written; a failed click never blocks the redirect.
func (h *URLHandler) Redirect(c *gin.Context) {
	url, err := h.urlService.ResolveTarget(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		h.handleError(c, "handler.Redirect", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), clickTimeout)
	defer cancel()

	if _, err := h.urlService.RecordClick(ctx, url); err != nil {
		httplog.LogEntrySetField(c.Request.Context(), "click_err", slog.StringValue(err.Error()))
		h.logger.Warn("failed to record click",
			slog.String("short_code", url.ShortCode),
			slog.Any("error", err),
		)
	}

	// HTTP 302 - Found
	c.Redirect(http.StatusFound, url.OriginalURL)
}

// handleError обрабатывает ошибки и возвращает соответствующие HTTP коды
func (h *URLHandler) handleError(c *gin.Context, op string, err error) {
	httplog.LogEntrySetFields(c.Request.Context(), map[string]any{"op": op, "err": err.Error()})

	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, model.Failure(validationErr.Message))
		return
	}

	if errors.Is(err, apperrors.ErrURLNotFound) {
		c.JSON(http.StatusNotFound, model.Failure("Short code not found"))
		return
	}

	h.logger.Error("request failed", slog.String("op", op), slog.Any("error", err))

	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		c.JSON(http.StatusInternalServerError, model.Failure(businessErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, model.Failure("Internal server error"))
}

func bindErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", "))
	}
	return "Invalid JSON format"
}
