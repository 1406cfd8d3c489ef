package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"leaveflow-backend/repository"
	"leaveflow-backend/service"
	"leaveflow-backend/storage"

	"github.com/gin-gonic/gin"
)

// maxPolicySize caps policy uploads at 20MB
const maxPolicySize = 20 * 1024 * 1024

// PolicyHandler handles HTTP requests for policy document ingestion
type PolicyHandler struct {
	ingestionService *service.IngestionService
	docRepo          *repository.PolicyDocumentRepository
	archive          storage.Archive
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(ingestionService *service.IngestionService, docRepo *repository.PolicyDocumentRepository, archive storage.Archive) *PolicyHandler {
	return &PolicyHandler{
		ingestionService: ingestionService,
		docRepo:          docRepo,
		archive:          archive,
	}
}

// Upload handles POST /api/policy/upload. The uploaded PDF replaces the
// entire policy knowledge base on success.
func (h *PolicyHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A policy document must be uploaded in the 'file' form field",
			},
		})
		return
	}

	if fileHeader.Size > maxPolicySize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("Policy document exceeds the %dMB limit", maxPolicySize/(1024*1024)),
			},
		})
		return
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNSUPPORTED_FORMAT",
				"message": "Only PDF policy documents are accepted",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.ingestionService.IngestPolicyDocument(c.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat), errors.Is(err, service.ErrEmptyDocument):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DOCUMENT",
					"message": err.Error(),
				},
			})
		case errors.Is(err, service.ErrEmbeddingService):
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMBEDDING_FAILED",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INGESTION_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"document_id": result.DocumentID,
			"chunk_count": result.ChunkCount,
			"message":     "Vectorstore created and saved successfully!",
		},
	})
}

// Latest handles GET /api/policy. Returns metadata of the policy document
// currently backing the knowledge base.
func (h *PolicyHandler) Latest(c *gin.Context) {
	doc, err := h.docRepo.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NO_POLICY",
					"message": "No policy document has been ingested yet",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// Download handles GET /api/policy/download. Streams the archived copy of
// the current policy document.
func (h *PolicyHandler) Download(c *gin.Context) {
	doc, err := h.docRepo.GetLatest(c.Request.Context())
	if err != nil || doc.StoragePath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_POLICY",
				"message": "No archived policy document is available",
			},
		})
		return
	}

	reader, err := h.archive.Retrieve(c.Request.Context(), doc.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to retrieve policy document: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.DataFromReader(http.StatusOK, doc.Size, "application/pdf", reader, nil)
}
