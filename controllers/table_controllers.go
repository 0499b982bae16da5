package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/utils"
)

type TableController struct {
	Engine *engine.Engine
}

func NewTableController(eng *engine.Engine) *TableController {
	return &TableController{Engine: eng}
}

// GetAllTables -> pointer records for every table of a restaurant, cheap
// enough for the floor overview because session bodies are not loaded.
func (tc *TableController) GetAllTables(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")

	tables, err := tc.Engine.Tables().List(c.Request.Context(), restaurantID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	table, err := tc.Engine.Tables().Get(c.Request.Context(), restaurantID, uint(tableID))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// CreateTable belongs to catalog management, kept here so a floor can be
// set up without touching the database by hand.
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		RestaurantID: restaurantID,
		Name:         body.Name,
		Status:       models.TableStatusFree,
	}
	if err := tc.Engine.Tables().Create(c.Request.Context(), &table); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetBill -> one-shot composed bill for a table, same recomputation the
// live view performs.
func (tc *TableController) GetBill(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	bill, err := tc.Engine.ComposeBill(c.Request.Context(), restaurantID, uint(tableID))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current bill", bill)
}

// CloseTable -> close the active session and free the table.
func (tc *TableController) CloseTable(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	if err := tc.Engine.CloseSession(c.Request.Context(), restaurantID, uint(tableID)); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", gin.H{"table_id": tableID})
}
