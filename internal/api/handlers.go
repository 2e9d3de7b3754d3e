package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Skufu/medicheck/internal/gate"
	"github.com/Skufu/medicheck/internal/triage"
)

type handlers struct {
	analyzer Analyzer
	gate     triage.Gatekeeper
	log      zerolog.Logger
}

type verifyRequest struct {
	Identifier string `json:"identifier"`
	// GitHubUsername is the field name older frontends send.
	GitHubUsername string `json:"github_username"`
}

func (r verifyRequest) identity() string {
	if id := strings.TrimSpace(r.Identifier); id != "" {
		return id
	}
	return strings.TrimSpace(r.GitHubUsername)
}

type symptomRequest struct {
	SymptomText string `json:"symptomText" binding:"required"`
	AgeGroup    string `json:"ageGroup" binding:"required"`
	Gender      string `json:"gender" binding:"required"`
}

func (r symptomRequest) toRequest() (triage.Request, error) {
	age, err := triage.ParseAgeGroup(r.AgeGroup)
	if err != nil {
		return triage.Request{}, err
	}
	gender, err := triage.ParseGender(r.Gender)
	if err != nil {
		return triage.Request{}, err
	}
	return triage.Request{SymptomText: r.SymptomText, AgeGroup: age, Gender: gender}, nil
}

func validationFailed(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": details})
}

func (h *handlers) verifyStar(c *gin.Context) {
	var payload verifyRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		validationFailed(c, "invalid payload")
		return
	}
	id := payload.identity()
	if id == "" {
		validationFailed(c, "identifier is required")
		return
	}

	// Accepted requests run to completion even if the client goes away.
	decision := h.gate.Decide(context.WithoutCancel(c.Request.Context()), id)
	c.JSON(http.StatusOK, decision)
}

func (h *handlers) checkSymptoms(c *gin.Context) {
	identity := strings.TrimSpace(c.Query("identity"))
	if identity == "" {
		identity = strings.TrimSpace(c.Query("github_username"))
	}
	if identity == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "access_denied", "reason": gate.ReasonIdentityRequired})
		return
	}

	var payload symptomRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		validationFailed(c, "symptomText, ageGroup and gender are required")
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		validationFailed(c, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(context.WithoutCancel(c.Request.Context()), req, identity)
	if err != nil {
		if reason, ok := triage.IsAccessDenied(err); ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "access_denied", "reason": reason})
			return
		}
		if errors.Is(err, triage.ErrEmptySymptoms) {
			validationFailed(c, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis_failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
