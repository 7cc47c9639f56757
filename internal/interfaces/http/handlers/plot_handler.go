package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/application/plots"
	"github.com/openadmet/admet-server/internal/interfaces/http/middleware"
)

// PlotHandler serves the DrugBank scatter endpoint used by the results page
// to swap axes and ATC filters without a full reload.
type PlotHandler struct {
	plots *plots.Service
}

func NewPlotHandler(plotsSvc *plots.Service) *PlotHandler {
	return &PlotHandler{plots: plotsSvc}
}

// DrugBankPlot renders the scatter for the requested ATC subset and axes.
// Query parameters: atc_code, x_task, y_task; omitted ones fall back to the
// user's stored preferences.
func (h *PlotHandler) DrugBankPlot(c *gin.Context) {
	userID := middleware.UserID(c)

	req := plots.ScatterRequest{
		ATCCode:   c.Query("atc_code"),
		XProperty: c.Query("x_task"),
		YProperty: c.Query("y_task"),
	}

	svg, err := h.plots.DrugBankScatter(c.Request.Context(), userID, req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"svg": svg})
}
