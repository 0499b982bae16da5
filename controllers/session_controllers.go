package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/utils"
)

type SessionController struct {
	Engine *engine.Engine
}

func NewSessionController(eng *engine.Engine) *SessionController {
	return &SessionController{Engine: eng}
}

func (sc *SessionController) GetSession(c *gin.Context) {
	session, err := sc.Engine.Sessions().Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

// GetOrderLog -> the audit trail of submissions, newest first.
func (sc *SessionController) GetOrderLog(c *gin.Context) {
	entries, err := sc.Engine.OrderLog().Entries(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order log", entries)
}

// RecordPayment -> the payment subsystem's scoped write: amount_paid,
// remaining_amount and payment_status only.
func (sc *SessionController) RecordPayment(c *gin.Context) {
	var body struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Engine.RecordPayment(c.Request.Context(), c.Param("session_id"), body.Amount)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment recorded", session)
}

// UpdateItemStatus -> kitchen workflow transition for one line.
func (sc *SessionController) UpdateItemStatus(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid item index"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Engine.UpdateItemStatus(c.Request.Context(), c.Param("session_id"), index, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", session)
}

// Reconcile -> rebuild the session cache from the order log.
func (sc *SessionController) Reconcile(c *gin.Context) {
	session, err := sc.Engine.ReconcileFromLog(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session reconciled", session)
}
