package rest

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// ContentManager is the service behind the post and pet endpoints.
type ContentManager interface {
	Create(ctx context.Context, ownerID string, kind models.Kind, in services.ContentInput) (*services.ContentDetails, error)
	Get(ctx context.Context, kind models.Kind, id string) (*services.ContentDetails, error)
	ListMine(ctx context.Context, ownerID string, kind models.Kind) ([]*services.ContentDetails, error)
	Update(ctx context.Context, ownerID string, kind models.Kind, id string, in services.ContentInput) (*services.ContentDetails, error)
	Delete(ctx context.Context, ownerID string, kind models.Kind, id string) error
}

// ContentHandler serves one content kind.
type ContentHandler struct {
	kind     models.Kind
	contents ContentManager
}

func NewContentHandler(kind models.Kind, contents ContentManager) *ContentHandler {
	return &ContentHandler{kind: kind, contents: contents}
}

// ContentForm is the multipart form of create and update requests. Files
// are sent in the "files" part; "remove" names attachments to drop.
type ContentForm struct {
	Category string   `form:"category" validate:"omitempty,max=32"`
	Title    string   `form:"title" validate:"required,max=200"`
	Body     string   `form:"body" validate:"max=10000"`
	Remove   []string `form:"remove" validate:"dive,required"`
}

// ListQuery filters list requests. Only the caller's own contents are
// served, and the post list must ask for them with mine=true.
type ListQuery struct {
	Mine bool `form:"mine"`
}

type AttachmentResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ContentResponse struct {
	ID            string               `json:"id"`
	OwnerID       string               `json:"ownerId"`
	Kind          string               `json:"kind"`
	Category      string               `json:"category"`
	Title         string               `json:"title"`
	Body          string               `json:"body"`
	HasAttachment bool                 `json:"hasAttachment"`
	Attachments   []AttachmentResponse `json:"attachments"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func newContentResponse(d *services.ContentDetails) ContentResponse {
	resp := ContentResponse{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		Kind:          string(d.Kind),
		Category:      d.Category,
		Title:         d.Title,
		Body:          d.Body,
		HasAttachment: d.HasAttachment,
		Attachments:   make([]AttachmentResponse, 0, len(d.Attachments)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, a := range d.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{Name: a.Name, URL: a.URL})
	}
	return resp
}

func (h *ContentHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *ContentHandler) Create(c *gin.Context) {
	in, closeFiles, ok := h.bindInput(c)
	if !ok {
		return
	}
	defer closeFiles()

	d, err := h.contents.Create(c.Request.Context(), ownerID(c), h.kind, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newContentResponse(d))
}

func (h *ContentHandler) Get(c *gin.Context) {
	d, err := h.contents.Get(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContentResponse(d))
}

func (h *ContentHandler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	if h.kind == models.KindPost && !q.Mine {
		respondWithError(c, fmt.Errorf("%w: listing posts requires mine=true", common.ErrorValidation))
		return
	}

	list, err := h.contents.ListMine(c.Request.Context(), ownerID(c), h.kind)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := make([]ContentResponse, 0, len(list))
	for _, d := range list {
		resp = append(resp, newContentResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ContentHandler) Update(c *gin.Context) {
	in, closeFiles, ok := h.bindInput(c)
	if !ok {
		return
	}
	defer closeFiles()

	d, err := h.contents.Update(c.Request.Context(), ownerID(c), h.kind, c.Param("id"), in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContentResponse(d))
}

func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.contents.Delete(c.Request.Context(), ownerID(c), h.kind, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindInput parses and validates the form and opens the uploaded files.
// The returned func closes them.
func (h *ContentHandler) bindInput(c *gin.Context) (services.ContentInput, func(), bool) {
	noop := func() {}

	var form ContentForm
	if err := c.ShouldBind(&form); err != nil {
		respondWithError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return services.ContentInput{}, noop, false
	}
	if details := validateRequest(form); details != nil {
		respondWithValidationError(c, details)
		return services.ContentInput{}, noop, false
	}

	in := services.ContentInput{
		Category: form.Category,
		Title:    form.Title,
		Body:     form.Body,
		Remove:   form.Remove,
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return in, noop, true
	}

	mf, err := c.MultipartForm()
	if err != nil {
		respondWithError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return services.ContentInput{}, noop, false
	}

	uploads, closeFiles, err := openUploads(mf.File["files"])
	if err != nil {
		respondWithError(c, err)
		return services.ContentInput{}, noop, false
	}
	in.Files = uploads
	return in, closeFiles, true
}

// openUploads opens every file part and sniffs its content type from the
// leading bytes; the declared type of the part is ignored.
func openUploads(headers []*multipart.FileHeader) ([]models.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("%w: open %s: %v", common.ErrorValidation, fh.Filename, err)
		}
		files = append(files, f)

		mtype, err := mimetype.DetectReader(f)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("%w: read %s: %v", common.ErrorValidation, fh.Filename, err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("rewind %s: %w", fh.Filename, err)
		}

		uploads = append(uploads, models.Upload{
			Name:        fh.Filename,
			ContentType: mtype.String(),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}
