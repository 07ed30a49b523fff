package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/interview-coach/internal/http/response"
	"github.com/yungbote/interview-coach/internal/services"
)

type InterviewHandler struct {
	interviewService services.InterviewService
}

func NewInterviewHandler(interviewService services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

type generateQuestionsResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	Questions []string  `json:"questions"`
}

// POST /api/interview/generate-questions
func (h *InterviewHandler) GenerateQuestions(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		JobRole      string          `json:"jobRole"`
		TechStack    string          `json:"techStack"`
		NumQuestions json.RawMessage `json:"numQuestions"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	n, err := parseQuestionCount(req.NumQuestions)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	session, err := h.interviewService.GenerateQuestions(c.Request.Context(), userID, services.GenerateInput{
		JobRole:      req.JobRole,
		TechStack:    req.TechStack,
		NumQuestions: n,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, generateQuestionsResponse{SessionID: session.ID, Questions: session.Questions})
}

// POST /api/interview/submit-answer
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		SessionID  string `json:"sessionId"`
		Question   string `json:"question"`
		UserAnswer string `json:"userAnswer"`
		JobRole    string `json:"jobRole"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	feedback, err := h.interviewService.SubmitAnswer(c.Request.Context(), userID, services.SubmitInput{
		SessionID:  req.SessionID,
		Question:   req.Question,
		UserAnswer: req.UserAnswer,
		JobRole:    req.JobRole,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"aiFeedback": feedback})
}

// GET /api/interview/sessions
func (h *InterviewHandler) ListSessions(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	sessions, err := h.interviewService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, sessions)
}

// GET /api/interview/sessions/:sessionId
func (h *InterviewHandler) GetSession(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	session, err := h.interviewService.GetSession(c.Request.Context(), userID, c.Param("sessionId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, session)
}

// PUT /api/interview/complete-session/:sessionId
func (h *InterviewHandler) CompleteSession(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.interviewService.CompleteSession(c.Request.Context(), userID, c.Param("sessionId")); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, "Interview session marked as completed.")
}

// DELETE /api/interview/sessions/:sessionId
func (h *InterviewHandler) DeleteSession(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.interviewService.DeleteSession(c.Request.Context(), userID, c.Param("sessionId")); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, "Interview session deleted successfully.")
}

// GET /api/interview/limits
func (h *InterviewHandler) Limits(c *gin.Context) {
	response.RespondOK(c, h.interviewService.Limits())
}
