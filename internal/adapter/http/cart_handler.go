package http

import (
	"context"
	"net/http"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/gin-gonic/gin"
)

type CartService interface {
	AddProduct(ctx context.Context, userID, productID int64) (*entity.CartItem, error)
	RemoveProduct(ctx context.Context, userID, productID int64) error
	UpdateCart(ctx context.Context, userID, productID int64, quantity int) (*entity.CartItem, error)
	GetCart(ctx context.Context, userID int64) (*entity.Cart, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addToCartReq struct {
	UserID    int64 `json:"userId" binding:"required,min=1"`
	ProductID int64 `json:"productId" binding:"required,min=1"`
}

type updateCartReq struct {
	UserID    int64 `json:"userId" binding:"required,min=1"`
	ProductID int64 `json:"productId" binding:"required,min=1"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// AddProduct handles POST /cart/add.
func (h *CartHandler) AddProduct(c *gin.Context) {
	var req addToCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	item, err := h.carts.AddProduct(ctx, req.UserID, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetCart handles GET /cart/:userId.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveProduct handles DELETE /cart/remove?userId=&productId=.
func (h *CartHandler) RemoveProduct(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	productID, ok := queryID(c, "productId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.carts.RemoveProduct(ctx, userID, productID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "productId": productID, "removed": true})
}

// UpdateCart handles PUT /cart/update.
func (h *CartHandler) UpdateCart(c *gin.Context) {
	var req updateCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	item, err := h.carts.UpdateCart(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
