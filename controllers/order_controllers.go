package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/middlewares"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/utils"
)

type OrderController struct {
	Engine *engine.Engine
}

func NewOrderController(eng *engine.Engine) *OrderController {
	return &OrderController{Engine: eng}
}

type orderItemReq struct {
	ProductID string                 `json:"product_id" binding:"required"`
	Name      string                 `json:"name" binding:"required"`
	UnitPrice float64                `json:"unit_price"`
	Quantity  int                    `json:"quantity" binding:"required"`
	Modifiers []models.OrderModifier `json:"modifiers"`
}

type orderReq struct {
	Items []orderItemReq `json:"items" binding:"required"`
}

func (r orderReq) batch() []models.OrderItem {
	items := make([]models.OrderItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Modifiers: it.Modifiers,
		}
	}
	return items
}

// CreateTableOrder -> submit a priced batch against a table (dine-in flow).
func (oc *OrderController) CreateTableOrder(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	var body orderReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("no actor on request"))
		return
	}

	sessionID, err := oc.Engine.Ingest(c.Request.Context(), restaurantID,
		engine.Target{TableID: uint(tableID)}, body.batch(), actor)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order submitted", gin.H{"session_id": sessionID})
}

// CreateSessionOrder -> submit a priced batch against a known session
// (counter and takeaway flows).
func (oc *OrderController) CreateSessionOrder(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	sessionID := c.Param("session_id")

	var body orderReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("no actor on request"))
		return
	}

	resolved, err := oc.Engine.Ingest(c.Request.Context(), restaurantID,
		engine.Target{SessionID: sessionID}, body.batch(), actor)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order submitted", gin.H{"session_id": resolved})
}
