package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/middleware"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/utils"
)

// Order list views.
const (
	OrderViewActive    = "active"
	OrderViewCompleted = "completed"
	OrderViewAll       = "all"
)

type OrderHandler struct {
	workspace *app.Workspace
	now       func() time.Time
}

func NewOrderHandler(workspace *app.Workspace) *OrderHandler {
	return &OrderHandler{
		workspace: workspace,
		now:       time.Now,
	}
}

// OrderRequest is the order form. Totals and timestamps are derived server side.
type OrderRequest struct {
	OrderNo          int                  `json:"orderNo"`
	OrderToken       string               `json:"orderToken"`
	CustomerName     string               `json:"customerName"`
	ContactNo        string               `json:"contactNo"`
	JobDescription   string               `json:"jobDescription"`
	JobUrgency       models.JobUrgency    `json:"jobUrgency"`
	Quantity         int                  `json:"quantity"`
	UnitPrice        float64              `json:"unitPrice"`
	AdvanceAmount    float64              `json:"advanceAmount"`
	Status           models.OrderStatus   `json:"status"`
	PaymentStatus    models.PaymentStatus `json:"paymentStatus"`
	AssignedToUserID string               `json:"assignedToUserId"`
}

func (r OrderRequest) apply(order *models.Order) {
	order.OrderNo = r.OrderNo
	order.OrderToken = r.OrderToken
	order.CustomerName = r.CustomerName
	order.ContactNo = r.ContactNo
	order.JobDescription = r.JobDescription
	order.JobUrgency = r.JobUrgency
	order.Quantity = r.Quantity
	order.UnitPrice = r.UnitPrice
	order.AdvanceAmount = r.AdvanceAmount
	order.Status = r.Status
	order.PaymentStatus = r.PaymentStatus
	order.AssignedToUserID = r.AssignedToUserID
}

// ListOrders returns one view of the cached orders, paginated.
// The active view is the default. Staff see only their own completed orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var orders []models.Order
	switch view := c.DefaultQuery("view", OrderViewActive); view {
	case OrderViewActive:
		orders = h.workspace.Store.ActiveOrders()
	case OrderViewCompleted:
		orders = h.completedOrders(c)
	case OrderViewAll:
		orders = h.workspace.Store.Orders()
	default:
		apierrors.BadRequest(c, "Invalid view: "+view)
		return
	}

	page := utils.Paginate(orders, params)
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders: dto.ToOrderDTOs(page, h.workspace.UserName, h.now()),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int64(len(orders)),
		},
	})
}

func (h *OrderHandler) completedOrders(c *gin.Context) []models.Order {
	userID, _ := middleware.GetUserID(c)
	admin := h.workspace.Session.IsAdmin()

	var completed []models.Order
	for _, o := range h.workspace.Store.Orders() {
		if !o.IsCompleted() {
			continue
		}
		if admin || o.AssignedToUserID == userID {
			completed = append(completed, o)
		}
	}
	return completed
}

// GetOrder returns a specific order by ID
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.workspace.Store.OrderByID(c.Param("id"))
	if !ok {
		apierrors.NotFound(c, "Order not found")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderDTO(order, h.workspace.UserName, h.now()))
}

// NewOrderDraft returns a blank form with the next order number and a fresh token
func (h *OrderHandler) NewOrderDraft(c *gin.Context) {
	draft, err := h.workspace.NewOrderDraft()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// CreateOrder creates a new order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var order models.Order
	req.apply(&order)
	if order.JobUrgency == "" {
		order.JobUrgency = models.JobUrgencyNormal
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	if order.OrderToken == "" {
		token, err := utils.GenerateOrderToken()
		if err != nil {
			apierrors.InternalError(c, "Failed to generate order token")
			return
		}
		order.OrderToken = token
	}

	if err := h.workspace.SaveOrder(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}

	// The server assigns the id; find the stored row by its token.
	for _, o := range h.workspace.Store.Orders() {
		if o.OrderToken == order.OrderToken {
			c.JSON(http.StatusCreated, dto.ToOrderDTO(o, h.workspace.UserName, h.now()))
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created"})
}

// UpdateOrder replaces an order. createdAt is kept from the stored row.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	existing, ok := h.workspace.Store.OrderByID(c.Param("id"))
	if !ok {
		apierrors.NotFound(c, "Order not found")
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	order := existing
	req.apply(&order)
	if err := h.workspace.SaveOrder(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}

	h.respondOrder(c, existing.ID)
}

// UpdateOrderStatus moves an order to another status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	type StatusRequest struct {
		Status models.OrderStatus `json:"status" binding:"required,oneof=Pending 'In Progress' Completed Hold"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid status")
		return
	}

	order, err := h.workspace.ChangeOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderDTO(order, h.workspace.UserName, h.now()))
}

// DeleteOrder deletes an order
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.workspace.Store.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// ListCustomers returns customers derived from orders
func (h *OrderHandler) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CustomerListResponse{
		Customers: h.workspace.Store.Customers(),
	})
}

func (h *OrderHandler) respondOrder(c *gin.Context, id string) {
	order, ok := h.workspace.Store.OrderByID(id)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message": "Order saved"})
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderDTO(order, h.workspace.UserName, h.now()))
}
