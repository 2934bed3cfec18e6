package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/middleware"
	"github.com/ecofinds/marketplace-api/internal/services"
	"github.com/ecofinds/marketplace-api/pkg/config"
	"github.com/gorilla/mux"
)

// App holds application dependencies
type App struct {
	config          *config.Config
	db              *db.DB
	metrics         *metrics.AppMetrics
	tokens          *auth.TokenManager
	userService     *services.UserService
	productService  *services.ProductService
	cartService     *services.CartService
	orderService    *services.OrderService
	reviewService   *services.ReviewService
	messageService  *services.MessageService
	wishlistService *services.WishlistService
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	database *db.DB,
	m *metrics.AppMetrics,
	tokens *auth.TokenManager,
	us *services.UserService,
	ps *services.ProductService,
	cs *services.CartService,
	os *services.OrderService,
	rs *services.ReviewService,
	ms *services.MessageService,
	ws *services.WishlistService,
) *App {
	return &App{
		config:          cfg,
		db:              database,
		metrics:         m,
		tokens:          tokens,
		userService:     us,
		productService:  ps,
		cartService:     cs,
		orderService:    os,
		reviewService:   rs,
		messageService:  ms,
		wishlistService: ws,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))

	// Public routes
	public := r.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/auth/register", a.RegisterHandler).Methods("POST")
	public.HandleFunc("/auth/login", a.LoginHandler).Methods("POST")
	public.HandleFunc("/products", a.ListProductsHandler).Methods("GET")
	public.HandleFunc("/products/user/{userId}", a.ListUserProductsHandler).Methods("GET")
	public.HandleFunc("/products/{id}", a.GetProductHandler).Methods("GET")
	public.HandleFunc("/reviews/product/{productId}", a.ListProductReviewsHandler).Methods("GET")
	public.HandleFunc("/reviews/seller/{sellerId}", a.ListSellerReviewsHandler).Methods("GET")

	// Routes behind the auth gate
	private := r.PathPrefix("/api/v1").Subrouter()
	private.Use(middleware.AuthMiddleware(a.tokens))

	private.HandleFunc("/auth/me", a.MeHandler).Methods("GET")
	private.HandleFunc("/auth/profile", a.UpdateProfileHandler).Methods("PUT")
	private.HandleFunc("/auth/password", a.ChangePasswordHandler).Methods("PUT")

	private.HandleFunc("/products", a.CreateProductHandler).Methods("POST")
	private.HandleFunc("/products/{id}", a.UpdateProductHandler).Methods("PUT")
	private.HandleFunc("/products/{id}", a.DeleteProductHandler).Methods("DELETE")
	private.HandleFunc("/products/{id}/view", a.RecordProductViewHandler).Methods("POST")

	private.HandleFunc("/cart", a.GetCartHandler).Methods("GET")
	private.HandleFunc("/cart", a.AddToCartHandler).Methods("POST")
	private.HandleFunc("/cart", a.ClearCartHandler).Methods("DELETE")
	private.HandleFunc("/cart/{id}", a.UpdateCartItemHandler).Methods("PUT")
	private.HandleFunc("/cart/{id}", a.RemoveCartItemHandler).Methods("DELETE")

	private.HandleFunc("/orders", a.CheckoutHandler).Methods("POST")
	private.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	private.HandleFunc("/orders/{id}", a.GetOrderHandler).Methods("GET")
	private.HandleFunc("/orders/{id}/status", a.UpdateOrderStatusHandler).Methods("PUT")

	private.HandleFunc("/reviews/{productId}", a.CreateReviewHandler).Methods("POST")

	private.HandleFunc("/messages", a.SendMessageHandler).Methods("POST")
	private.HandleFunc("/messages/unread", a.UnreadCountHandler).Methods("GET")
	private.HandleFunc("/messages/chat/{userId}", a.ConversationHandler).Methods("GET")
	private.HandleFunc("/messages/read/{userId}", a.MarkMessagesReadHandler).Methods("PUT")

	private.HandleFunc("/wishlist", a.GetWishlistHandler).Methods("GET")
	private.HandleFunc("/wishlist", a.ClearWishlistHandler).Methods("DELETE")
	private.HandleFunc("/wishlist/{productId}", a.ToggleWishlistHandler).Methods("POST")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
