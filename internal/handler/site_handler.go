package handler

import (
	"errors"
	"net/http"

	"chapel-site/internal/domain/contact"
	"chapel-site/internal/domain/review"
	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"
	chapel_errors "chapel-site/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req httpdto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), services.ContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Message:  req.Message,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toContactDTO(sub)))
}

func (h *ContactHandler) List(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, limit, ok := pagination(c)
	if !ok {
		badRequest(c)
		return
	}
	items, total, err := h.service.List(c.Request.Context(), actor, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	dtos := make([]httpdto.ContactDTO, 0, len(items))
	for _, s := range items {
		dtos = append(dtos, toContactDTO(s))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.Page[httpdto.ContactDTO]{
		Items: dtos, Total: total, Page: page, Limit: limit,
	}))
}

// ReviewHandler serves the public review board.
type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) List(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		badRequest(c)
		return
	}
	items, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	dtos := make([]httpdto.ReviewDTO, 0, len(items))
	for _, rv := range items {
		dtos = append(dtos, toReviewDTO(rv))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.Page[httpdto.ReviewDTO]{
		Items: dtos, Total: total, Page: page, Limit: limit,
	}))
}

func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req httpdto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	rv, err := h.service.Create(c.Request.Context(), actor, req.Rating, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toReviewDTO(rv)))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, err := parseUint64(c.Param("id"))
	if err != nil {
		badRequest(c)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// MediaHandler accepts admin uploads.
type MediaHandler struct {
	service *services.MediaService
}

func NewMediaHandler(service *services.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) Upload(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	// Leave headroom for the multipart envelope around the file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxBytes()+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, chapel_errors.ErrTooLarge)
			return
		}
		badRequest(c)
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c)
		return
	}
	defer f.Close()

	obj, err := h.service.Upload(c.Request.Context(), actor, services.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.MediaDTO{
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}))
}

func toContactDTO(s contact.Submission) httpdto.ContactDTO {
	return httpdto.ContactDTO{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Message:   s.Message,
		CreatedAt: s.CreatedAt,
	}
}

func toReviewDTO(rv review.Review) httpdto.ReviewDTO {
	return httpdto.ReviewDTO{
		ID:         rv.ID,
		AuthorName: rv.AuthorName,
		Rating:     rv.Rating,
		Text:       rv.Text,
		CreatedAt:  rv.CreatedAt,
	}
}
