package handler

import (
	"net/http"
	"strconv"
	"time"

	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/services/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type CatalogHandler struct {
	service *catalog.Service
	log     *zap.Logger
}

func NewCatalogHandler(s *catalog.Service, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: s, log: log}
}

func (h *CatalogHandler) CreateParent(c *gin.Context) {
	var payload catalog.ParentInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	parent, err := h.service.CreateParent(c.Request.Context(), middleware.SchoolID(c), payload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, parent)
}

func (h *CatalogHandler) ListParents(c *gin.Context) {
	items, err := h.service.ListParents(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *CatalogHandler) CreateClassRoom(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	room, err := h.service.CreateClassRoom(c.Request.Context(), middleware.SchoolID(c), payload.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *CatalogHandler) ListClassRooms(c *gin.Context) {
	items, err := h.service.ListClassRooms(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateTerm accepts dates as yyyy-mm-dd.
func (h *CatalogHandler) CreateTerm(c *gin.Context) {
	var payload struct {
		Session   string `json:"session"`
		Name      string `json:"name"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		IsActive  bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	in := catalog.TermInput{Session: payload.Session, Name: payload.Name, IsActive: payload.IsActive}
	var err error
	if payload.StartDate != "" {
		if in.StartDate, err = time.Parse(dateLayout, payload.StartDate); err != nil {
			badRequest(c, "invalid start_date format, expected yyyy-mm-dd")
			return
		}
	}
	if payload.EndDate != "" {
		if in.EndDate, err = time.Parse(dateLayout, payload.EndDate); err != nil {
			badRequest(c, "invalid end_date format, expected yyyy-mm-dd")
			return
		}
	}

	term, err := h.service.CreateTerm(c.Request.Context(), middleware.SchoolID(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, term)
}

func (h *CatalogHandler) ListTerms(c *gin.Context) {
	items, err := h.service.ListTerms(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CatalogHandler) CreateStudent(c *gin.Context) {
	var payload catalog.StudentInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	student, err := h.service.CreateStudent(c.Request.Context(), middleware.SchoolID(c), payload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *CatalogHandler) ListStudents(c *gin.Context) {
	classRoomID, ok := optionalUUID(c, "class_room_id")
	if !ok {
		return
	}
	filter := repository.StudentFilter{ClassRoomID: classRoomID}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid active")
			return
		}
		filter.ActiveOnly = active
	}

	items, err := h.service.ListStudents(c.Request.Context(), middleware.SchoolID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *CatalogHandler) CreateFeeStructure(c *gin.Context) {
	var payload catalog.FeeStructureInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	fee, err := h.service.CreateFeeStructure(c.Request.Context(), middleware.SchoolID(c), payload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, fee)
}

func (h *CatalogHandler) ListFeeStructures(c *gin.Context) {
	items, err := h.service.ListFeeStructures(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
