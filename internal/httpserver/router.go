package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"haat/internal/auth"
	"haat/internal/httpserver/handlers"
)

func NewRouter(d *handlers.Deps) http.Handler {
	authn := auth.NewAuthenticator(d.Tokens, d.Cookies.Access, handlers.ErrorWriter(d.Lg), d.Lg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(d.Lg))

	r.Post("/auth/register", handlers.Register(d))
	r.Post("/auth/login", handlers.Login(d))
	r.Post("/auth/refresh", handlers.Refresh(d))
	r.Post("/auth/logout", handlers.Logout(d))

	r.Get("/products", handlers.ListProducts(d))
	r.Get("/products/{slug}", handlers.GetProduct(d))
	r.Get("/categories", handlers.ListCategories(d))
	r.Get("/artisans", handlers.ListArtisans(d))
	r.Get("/artisans/{slug}", handlers.GetArtisan(d))
	r.Get("/banners", handlers.ListBanners(d))
	r.Get("/orders/{id}", handlers.TrackOrder(d))

	r.Group(func(protected chi.Router) {
		protected.Use(authn.RequireAuthenticated())
		protected.Get("/me", handlers.Me(d))
		protected.Patch("/me", handlers.UpdateMe(d))
		protected.Post("/me/password", handlers.ChangePassword(d))

		protected.Get("/user/cart", handlers.GetCart(d))
		protected.Post("/user/cart", handlers.AddToCart(d))
		protected.Patch("/user/cart/{productID}", handlers.UpdateCartItem(d))
		protected.Delete("/user/cart/{productID}", handlers.RemoveCartItem(d))
		protected.Get("/user/wishlist", handlers.GetWishlist(d))
		protected.Post("/user/wishlist", handlers.AddToWishlist(d))
		protected.Delete("/user/wishlist/{productID}", handlers.RemoveFromWishlist(d))
		protected.Post("/user/orders", handlers.PlaceOrder(d))
		protected.Get("/user/orders", handlers.MyOrders(d))
		protected.Get("/user/orders/{orderNumber}", handlers.MyOrder(d))
	})

	r.Group(func(editors chi.Router) {
		editors.Use(authn.RequireRole(auth.CatalogEditors...))
		editors.Post("/admin/products", handlers.CreateProduct(d))
		editors.Patch("/admin/products/{id}", handlers.UpdateProduct(d))
		editors.Delete("/admin/products/{id}", handlers.DisableProduct(d))
	})

	r.Group(func(staff chi.Router) {
		staff.Use(authn.RequireRole(auth.Staff...))
		staff.Get("/admin/orders", handlers.AdminListOrders(d))
		staff.Post("/admin/orders", handlers.AdminCreateOrder(d))
		staff.Post("/admin/orders/{id}", handlers.AdminUpdateOrderStatus(d))
		staff.Post("/admin/orders/{id}/payment", handlers.AdminSetPaymentStatus(d))
		staff.Get("/admin/orders/{id}/notifications", handlers.OrderNotifications(d))
		staff.Get("/admin/users", handlers.ListUsers(d))
		staff.Delete("/admin/users/{id}", handlers.DisableUser(d))
		staff.Post("/admin/categories", handlers.CreateCategory(d))
		staff.Post("/admin/banners", handlers.CreateBanner(d))
		staff.Get("/admin/audit", handlers.ListAuditLogs(d))
	})

	r.Group(func(super chi.Router) {
		super.Use(authn.RequireRole(auth.SuperAdmins...))
		super.Post("/admin/orders/{id}/override", handlers.AdminOverrideOrderStatus(d))
		super.Patch("/admin/users/{id}/role", handlers.SetUserRole(d))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
