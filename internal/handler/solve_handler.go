package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classtable-engine/internal/dto"
	"github.com/noah-isme/classtable-engine/internal/service"
	"github.com/noah-isme/classtable-engine/pkg/response"
)

// SolveHandler exposes the single read-only HTTP surface in scope: fetching
// a previously persisted solve run and its ranked candidates.
type SolveHandler struct {
	solves *service.SolveService
}

// NewSolveHandler constructs a solve handler.
func NewSolveHandler(solves *service.SolveService) *SolveHandler {
	return &SolveHandler{solves: solves}
}

// Get handles GET /v1/solves/:id.
func (h *SolveHandler) Get(c *gin.Context) {
	run, assignments, err := h.solves.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, dto.NewSolveRunView(run, assignments), nil)
}
