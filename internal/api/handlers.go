package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clinical-cds-server/internal/domain"
	"github.com/clinical-cds-server/internal/feedback"
)

// DiagnoseRequest is the payload for the full assessment pipeline
type DiagnoseRequest struct {
	PatientID      string                   `json:"patient_id" binding:"required"`
	Symptoms       []string                 `json:"symptoms"`
	PatientContext domain.PatientContext    `json:"patient_context"`
	Findings       []domain.ClinicalFinding `json:"findings,omitempty"`
}

// RiskRequest is the payload for a standalone risk assessment
type RiskRequest struct {
	Symptoms       []string                 `json:"symptoms"`
	PatientContext domain.PatientContext    `json:"patient_context"`
	Findings       []domain.ClinicalFinding `json:"findings,omitempty"`
}

// FeedbackRequest is the payload for clinician feedback on a suggestion
type FeedbackRequest struct {
	PatientID          string `json:"patient_id" binding:"required"`
	ConditionKey       string `json:"condition_key" binding:"required"`
	SuggestedCategory  string `json:"suggested_category"`
	SuggestedPriority  string `json:"suggested_priority"`
	Verdict            string `json:"verdict" binding:"required"`
	ConfirmedCondition string `json:"confirmed_condition,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// handleDiagnose runs the full decision support pipeline
func (s *Server) handleDiagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
		return
	}

	result, err := s.service.AssessAndDiagnose(c.Request.Context(), req.PatientID, req.Symptoms, req.PatientContext, req.Findings)
	if err != nil {
		if domain.IsValidationError(err) {
			s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
			return
		}
		s.log.WithError(err).WithField("patient_id", req.PatientID).Error("Assessment pipeline failed")
		s.writeError(c, http.StatusInternalServerError, domain.ErrInternalServer, "assessment failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleRisk runs the risk assessment stage on its own
func (s *Server) handleRisk(c *gin.Context) {
	var req RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
		return
	}
	if len(req.Symptoms) == 0 && len(req.Findings) == 0 {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "at least one symptom or clinical finding is required")
		return
	}

	result := s.risk.AssessRisk(req.Symptoms, req.PatientContext, req.Findings)
	c.JSON(http.StatusOK, result)
}

// handleGetCondition returns the knowledge profile for one condition
func (s *Server) handleGetCondition(c *gin.Context) {
	key := c.Param("key")

	profile, ok := s.knowledge.GetConditionProfile(key)
	if !ok {
		s.writeError(c, http.StatusNotFound, domain.ErrKnowledgeLookupMiss, "unknown condition: "+key)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// handleAlertStream upgrades the connection and subscribes it to the hub
func (s *Server) handleAlertStream(c *gin.Context) {
	if s.hub == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrInternalServer, "alert streaming is not enabled")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleGetAlerts lists active alerts for a patient
func (s *Server) handleGetAlerts(c *gin.Context) {
	if s.alerts == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrDatabaseError, "alert storage is not enabled")
		return
	}

	alerts, err := s.alerts.GetActiveByPatientID(c.Request.Context(), c.Param("patient_id"))
	if err != nil {
		s.log.WithError(err).Error("Failed to load alerts")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to load alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// handleAcknowledgeAlert marks an alert as acknowledged
func (s *Server) handleAcknowledgeAlert(c *gin.Context) {
	if s.alerts == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrDatabaseError, "alert storage is not enabled")
		return
	}

	if err := s.alerts.Acknowledge(c.Request.Context(), c.Param("alert_id")); err != nil {
		s.writeError(c, http.StatusNotFound, domain.ErrDatabaseError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

// handleSaveFeedback stores clinician feedback on a suggestion
func (s *Server) handleSaveFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrInternalServer, "feedback storage is not enabled")
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
		return
	}

	verdict := feedback.Assessment(req.Verdict)
	switch verdict {
	case feedback.AssessmentAgree, feedback.AssessmentDisagree, feedback.AssessmentModified:
	default:
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "verdict must be agree, disagree, or modified")
		return
	}

	fb := &feedback.Feedback{
		PatientID:          req.PatientID,
		ConditionKey:       req.ConditionKey,
		SuggestedCategory:  req.SuggestedCategory,
		SuggestedPriority:  req.SuggestedPriority,
		Verdict:            verdict,
		ConfirmedCondition: req.ConfirmedCondition,
		Notes:              req.Notes,
	}

	if err := s.feedback.Save(c.Request.Context(), fb); err != nil {
		s.log.WithError(err).Error("Failed to save feedback")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to save feedback")
		return
	}

	c.JSON(http.StatusCreated, fb)
}

// handleListFeedback returns feedback entries with pagination
func (s *Server) handleListFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrInternalServer, "feedback storage is not enabled")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.log.WithError(err).Error("Failed to list feedback")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to list feedback")
		return
	}

	total, err := s.feedback.Count(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to count feedback")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to count feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": entries, "total": total})
}

// handleFeedbackStats returns per-condition agreement statistics
func (s *Server) handleFeedbackStats(c *gin.Context) {
	if s.feedback == nil {
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrInternalServer, "feedback storage is not enabled")
		return
	}

	stats, err := s.feedback.StatsByCondition(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to compute feedback stats")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to compute feedback stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// writeError renders a structured error response
func (s *Server) writeError(c *gin.Context, status int, code, message string) {
	cdsErr := domain.NewCDSError(code, message, "", c.GetString("correlation_id"))
	c.JSON(status, gin.H{"error": cdsErr})
}
