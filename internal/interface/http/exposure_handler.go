package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/lightcast/internal/domain/exposure"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// solveRequest names the leg to derive; the other two legs must be set.
// Scene brightness comes from ev, or from lux when ev is absent.
type solveRequest struct {
	SolveFor     string   `json:"solveFor" binding:"required"`
	EV           *float64 `json:"ev"`
	Lux          *float64 `json:"lux"`
	Aperture     float64  `json:"aperture"`
	Shutter      float64  `json:"shutter"`
	ISO          float64  `json:"iso"`
	Compensation float64  `json:"compensation"`
	StopScale    string   `json:"stopScale"`
}

type solveResponse struct {
	exposure.Solution
	SceneEV float64 `json:"sceneEv"`
	Lux     float64 `json:"lux"`
}

func (h *Handler) SolveExposure(c *gin.Context) {
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	axis, err := exposure.ParseAxis(req.SolveFor)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	scale, err := exposure.ParseStopScale(req.StopScale)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	var ev float64
	switch {
	case req.EV != nil:
		ev = *req.EV
	case req.Lux != nil && *req.Lux > 0:
		ev = exposure.LuxToEV(*req.Lux)
	default:
		abortWithError(c, fromDomainError(apperrors.Wrap(apperrors.CodeInvalidInput, "ev or a positive lux is required", nil), "invalid_request"))
		return
	}

	known := exposure.Triangle{
		Aperture: exposure.Value{Raw: req.Aperture},
		Shutter:  exposure.Value{Raw: req.Shutter},
		ISO:      exposure.Value{Raw: req.ISO},
	}
	sol, err := exposure.Solve(axis, ev, known, req.Compensation, scale)
	if err != nil {
		abortWithError(c, fromDomainError(err, "solve_failed"))
		return
	}
	c.JSON(http.StatusOK, solveResponse{Solution: sol, SceneEV: ev, Lux: exposure.EVToLux(ev)})
}

func (h *Handler) StopLadder(c *gin.Context) {
	axis, err := exposure.ParseAxis(c.Param("axis"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	scale, err := exposure.ParseStopScale(c.Query("scale"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	values, err := exposure.StopLadder(axis, scale)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"axis": axis, "scale": scale, "values": values})
}
