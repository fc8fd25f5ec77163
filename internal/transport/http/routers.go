// Package httpapi mounts the bounded-context services on a gin router.
package httpapi

import "github.com/gin-gonic/gin"

// Handlers aggregates the per-context APIs mounted by the router.
type Handlers struct {
	OrderAPI     OrderAPI
	CheckoutAPI  CheckoutAPI
	ChangeSetAPI ChangeSetAPI
	CartAPI      CartAPI
	CustomerAPI  CustomerAPI
}

// NewRouter returns a new router with default middleware.
func NewRouter(handlers Handlers) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handlers)
}

// NewRouterWithGinEngine mounts all routes on an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handlers Handlers) *gin.Engine {
	v1 := router.Group("/v1")

	v1.POST("/checkout", handlers.CheckoutAPI.Checkout)

	v1.GET("/orders/:orderGuid", handlers.OrderAPI.GetOrder)
	v1.POST("/orders/:orderGuid/cancel", handlers.OrderAPI.CancelOrder)
	v1.POST("/orders/:orderGuid/hold", handlers.OrderAPI.HoldOrder)
	v1.POST("/orders/:orderGuid/release-hold", handlers.OrderAPI.ReleaseHold)
	v1.POST("/orders/:orderGuid/shipments/:shipmentGuid/release", handlers.OrderAPI.ReleaseShipment)
	v1.POST("/orders/:orderGuid/shipments/:shipmentGuid/complete", handlers.OrderAPI.CompleteShipment)
	v1.POST("/orders/:orderGuid/shipments/:shipmentGuid/cancel", handlers.OrderAPI.CancelShipment)
	v1.POST("/orders/:orderGuid/shipments/:shipmentGuid/adjust", handlers.OrderAPI.AdjustShipmentTotal)
	v1.POST("/orders/:orderGuid/shipments/:shipmentGuid/refund", handlers.OrderAPI.Refund)

	v1.GET("/carts/:shopperGuid", handlers.CartAPI.GetCart)
	v1.POST("/carts/:shopperGuid/lines", handlers.CartAPI.AddLine)
	v1.POST("/carts/:shopperGuid/merge", handlers.CartAPI.MergeCarts)
	v1.DELETE("/carts/:shopperGuid", handlers.CartAPI.ClearCart)

	v1.POST("/changesets", handlers.ChangeSetAPI.Create)
	v1.GET("/changesets/status", handlers.ChangeSetAPI.Status)
	v1.GET("/changesets/:changeSetGuid", handlers.ChangeSetAPI.Get)
	v1.GET("/changesets/:changeSetGuid/members", handlers.ChangeSetAPI.ListMembers)
	v1.POST("/changesets/:changeSetGuid/objects", handlers.ChangeSetAPI.AddObject)
	v1.DELETE("/changesets/:changeSetGuid/objects", handlers.ChangeSetAPI.RemoveObject)
	v1.POST("/changesets/:changeSetGuid/move", handlers.ChangeSetAPI.MoveObjects)
	v1.POST("/changesets/:changeSetGuid/lock", handlers.ChangeSetAPI.Lock)
	v1.POST("/changesets/:changeSetGuid/ready", handlers.ChangeSetAPI.MarkReadyToPublish)
	v1.POST("/changesets/:changeSetGuid/finalize", handlers.ChangeSetAPI.Finalize)

	v1.POST("/customers", handlers.CustomerAPI.Register)
	v1.GET("/customers/:customerGuid", handlers.CustomerAPI.Get)
	v1.PUT("/customers/:customerGuid", handlers.CustomerAPI.UpdateProfile)
	v1.DELETE("/customers/:customerGuid", handlers.CustomerAPI.Delete)
	v1.GET("/customers/:customerGuid/orders", handlers.OrderAPI.ListOrders)
	v1.POST("/customers/:customerGuid/sessions", handlers.CustomerAPI.StartSession)
	v1.DELETE("/customers/:customerGuid/sessions", handlers.CustomerAPI.EndSession)

	return router
}
