package v1

import (
	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/auth"
	"pharmacy/internal/domain/catalogs/customer"
	"pharmacy/internal/domain/catalogs/department"
	"pharmacy/internal/domain/catalogs/item"
	"pharmacy/internal/domain/catalogs/location"
	"pharmacy/internal/domain/catalogs/taxcode"
	"pharmacy/internal/domain/catalogs/uom"
	"pharmacy/internal/domain/catalogs/vendor"
	"pharmacy/internal/domain/documents/consumption"
	"pharmacy/internal/domain/documents/goods_receipt"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/domain/documents/returns"
	"pharmacy/internal/domain/documents/transfer"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/domain/rules"
	"pharmacy/internal/infrastructure/http/v1/dto"
	"pharmacy/internal/infrastructure/http/v1/handlers"
	"pharmacy/internal/infrastructure/http/v1/middleware"
	"pharmacy/internal/infrastructure/storage/postgres"
	"pharmacy/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmacy/internal/infrastructure/storage/postgres/document_repo"
	"pharmacy/internal/infrastructure/storage/postgres/register_repo"
	"pharmacy/pkg/logger"
)

// RouterConfig holds the infrastructure the router builds its services on.
type RouterConfig struct {
	TxManager *postgres.TxManager
	Logger    *logger.Logger

	// AuthService validates tokens and serves /auth
	AuthService *auth.Service

	Numerator numerator.Generator

	// Locker serialises stock and invoice changes across instances
	Locker lock.Locker
	Audit  audit.Recorder
	Rules  *rules.Engine

	// AuditHistory serves /audit; nil leaves the route out
	AuditHistory handlers.AuditHistory

	// BatchCache caches available batches per item; nil disables caching
	BatchCache stock.BatchCache

	// Idempotency is nil when idempotency is disabled
	Idempotency middleware.IdempotencyStore

	// PeriodPolicy refuses posting into closed periods
	PeriodPolicy posting.PeriodPolicy

	CORSOrigins  []string
	HealthChecks map[string]handlers.Pinger
	Development  bool
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	dto.RegisterValidators()

	router := gin.New()

	// order matters: recovery and errors wrap everything else
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")
	{
		registerAuthRoutes(api, base, cfg)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))
		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		svc := newServices(cfg)
		registerCatalogRoutes(protected, base, svc)
		registerStockRoutes(protected, base, svc)
		registerBillingRoutes(protected, base, svc)
		registerPurchaseRoutes(protected, base, svc)
		registerMovementRoutes(protected, base, svc)

		if cfg.AuditHistory != nil {
			h := handlers.NewAuditHandler(base, cfg.AuditHistory)
			protected.GET("/audit/:type/:id", middleware.RequirePermission(auth.PermUsersManage), h.History)
		}
	}

	return router
}

// services are the domain services behind the API.
type services struct {
	items       *item.Service
	vendors     *vendor.Service
	customers   *customer.Service
	taxes       *taxcode.Service
	uoms        *uom.Service
	locations   *location.Service
	departments *department.Service

	stock       *stock.Service
	purchase    *purchase.Service
	receipts    *goods_receipt.Service
	invoices    *invoice.Service
	returns     *returns.Service
	transfers   *transfer.Service
	consumption *consumption.Service
}

func newServices(cfg RouterConfig) *services {
	txm := cfg.TxManager
	s := &services{}

	taxRepo := catalog_repo.NewTaxCodeRepo(txm)
	s.items = item.NewService(catalog_repo.NewItemRepo(txm), taxRepo, txm, cfg.Numerator)
	s.vendors = vendor.NewService(catalog_repo.NewVendorRepo(txm), txm, cfg.Numerator)
	s.customers = customer.NewService(catalog_repo.NewCustomerRepo(txm), txm, cfg.Numerator)
	s.taxes = taxcode.NewService(taxRepo, txm, cfg.Numerator)
	s.uoms = uom.NewService(catalog_repo.NewUOMRepo(txm), txm, cfg.Numerator)
	s.locations = location.NewService(catalog_repo.NewLocationRepo(txm), txm, cfg.Numerator)
	s.departments = department.NewService(catalog_repo.NewDepartmentRepo(txm), txm, cfg.Numerator)

	var stockOpts []stock.Option
	var invoiceOpts []invoice.Option
	if cfg.Locker != nil {
		stockOpts = append(stockOpts, stock.WithLocker(cfg.Locker))
		invoiceOpts = append(invoiceOpts, invoice.WithLocker(cfg.Locker))
	}
	if cfg.Audit != nil {
		stockOpts = append(stockOpts, stock.WithAudit(cfg.Audit))
		invoiceOpts = append(invoiceOpts, invoice.WithAudit(cfg.Audit))
	}
	if cfg.BatchCache != nil {
		stockOpts = append(stockOpts, stock.WithCache(cfg.BatchCache))
	}
	s.stock = stock.NewService(register_repo.NewStockRepo(txm), txm, stockOpts...)

	engine := posting.NewEngine(s.stock, txm)
	if cfg.PeriodPolicy != nil {
		engine = engine.WithPolicy(cfg.PeriodPolicy)
	}

	s.purchase = purchase.NewService(
		document_repo.NewPurchaseRequestRepo(txm),
		document_repo.NewPurchaseOrderRepo(txm),
		cfg.Numerator, txm,
	)
	s.receipts = goods_receipt.NewService(document_repo.NewGoodsReceiptRepo(txm), engine, cfg.Numerator, txm, s.purchase)

	if cfg.Rules != nil {
		invoiceOpts = append(invoiceOpts, invoice.WithRules(cfg.Rules))
	}
	s.invoices = invoice.NewService(
		document_repo.NewInvoiceRepo(txm),
		document_repo.NewAdjustmentRepo(txm),
		engine, s.stock, cfg.Numerator, txm,
		invoiceOpts...,
	)
	var returnOpts []returns.Option
	if cfg.Locker != nil {
		returnOpts = append(returnOpts, returns.WithLocker(cfg.Locker))
	}
	s.returns = returns.NewService(document_repo.NewReturnRepo(txm), engine, cfg.Numerator, txm, s.invoices, returnOpts...)
	s.transfers = transfer.NewService(document_repo.NewTransferRepo(txm), engine, cfg.Numerator, txm)
	s.consumption = consumption.NewService(document_repo.NewConsumptionRepo(txm), engine, cfg.Numerator, txm)
	return s
}

func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuthHandler(base, cfg.AuthService)

	public := rg.Group("/auth")
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)

	private := rg.Group("/auth")
	private.Use(middleware.Auth(cfg.AuthService))
	private.POST("/logout", h.Logout)
	private.GET("/me", h.Me)
	private.POST("/register", middleware.RequirePermission(auth.PermUsersManage), h.Register)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *services) {
	RegisterCatalogRoutes(rg.Group("/items"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*item.Item, dto.ItemRequest]{
		Service: s.items.CatalogService, EntityName: "item",
		MapCreate: dto.ItemRequest.ToItem, MapUpdate: dto.ItemRequest.ApplyToItem,
	}))
	RegisterCatalogRoutes(rg.Group("/vendors"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*vendor.Vendor, dto.VendorRequest]{
		Service: s.vendors.CatalogService, EntityName: "vendor",
		MapCreate: dto.VendorRequest.ToVendor, MapUpdate: dto.VendorRequest.ApplyToVendor,
	}))
	RegisterCatalogRoutes(rg.Group("/taxes"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*taxcode.TaxCode, dto.TaxCodeRequest]{
		Service: s.taxes.CatalogService, EntityName: "tax",
		MapCreate: dto.TaxCodeRequest.ToTaxCode, MapUpdate: dto.TaxCodeRequest.ApplyToTaxCode,
	}))
	RegisterCatalogRoutes(rg.Group("/uoms"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*uom.UOM, dto.UOMRequest]{
		Service: s.uoms.CatalogService, EntityName: "unit",
		MapCreate: dto.UOMRequest.ToUOM, MapUpdate: dto.UOMRequest.ApplyToUOM,
	}))
	RegisterCatalogRoutes(rg.Group("/locations"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*location.Location, dto.LocationRequest]{
		Service: s.locations.CatalogService, EntityName: "location",
		MapCreate: dto.LocationRequest.ToLocation, MapUpdate: dto.LocationRequest.ApplyToLocation,
	}))
	RegisterCatalogRoutes(rg.Group("/departments"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*department.Department, dto.DepartmentRequest]{
		Service: s.departments.CatalogService, EntityName: "department",
		MapCreate: dto.DepartmentRequest.ToDepartment, MapUpdate: dto.DepartmentRequest.ApplyToDepartment,
	}))

	customers := handlers.NewCustomerHandler(base, s.customers)
	group := rg.Group("/customers")
	RegisterCatalogRoutes(group, customers)
	group.PUT("/:id/status", middleware.RequirePermission(auth.PermCatalogWrite), customers.SetStatus)
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *services) {
	h := handlers.NewStockHandler(base, s.stock, s.vendors)
	read := middleware.RequirePermission(auth.PermStockRead)
	adjust := middleware.RequirePermission(auth.PermStockAdjust)

	g := rg.Group("/stocks")
	g.GET("", read, h.List)
	g.GET("/", read, h.List)
	g.POST("/adjust", adjust, h.Adjust)
	g.POST("/add-batch-stock", adjust, h.AddBatchStock)
	g.GET("/ledger", read, h.Ledger)
	g.GET("/ledger/export", read, h.ExportLedger)
	g.GET("/supplier-ledger", middleware.RequirePermission(auth.PermPurchaseRead), h.SupplierLedger)
	g.GET("/supplier-ledger/export", middleware.RequirePermission(auth.PermPurchaseRead), h.ExportSupplierLedger)
}

func registerBillingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *services) {
	h := handlers.NewBillingHandler(base, s.invoices)
	read := middleware.RequirePermission(auth.PermBillingRead)
	write := middleware.RequirePermission(auth.PermBillingWrite)
	refund := middleware.RequirePermission(auth.PermBillingRefund)

	g := rg.Group("/billing")
	g.GET("/available-batches/:item", read, h.AvailableBatches)
	g.POST("/create-invoice", write, h.Invoices.Create)
	g.GET("/invoices", read, h.Invoices.List)
	g.GET("/invoices/:id", read, h.Invoices.Get)
	g.PUT("/return-payment/:id", refund, h.ReturnPayment)

	g.GET("/invoices/:id/adjustments", read, h.ListAdjustments)
	g.POST("/invoices/:id/adjustments", write, h.RequestAdjustment)
	g.POST("/adjustments/:adjId/approve", refund, h.ApproveAdjustment)
	g.POST("/adjustments/:adjId/take", write, h.TakeAdjustment)
	g.POST("/adjustments/:adjId/return", write, h.ReturnAdjustment)
}

func registerPurchaseRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *services) {
	h := handlers.NewPurchaseHandler(base, s.purchase)
	read := middleware.RequirePermission(auth.PermPurchaseRead)
	write := middleware.RequirePermission(auth.PermPurchaseWrite)

	g := rg.Group("/purchase")
	g.GET("/pr", read, h.Requests.List)
	g.POST("/pr", write, h.Requests.Create)
	g.GET("/pr/:id", read, h.Requests.Get)
	g.POST("/pr/:id/approve", write, h.ApproveRequest)
	g.POST("/pr/:id/convert", write, h.ConvertRequest)

	g.GET("/po", read, h.Orders.List)
	g.POST("/po", write, h.Orders.Create)
	g.GET("/po/:id", read, h.Orders.Get)
	g.POST("/po/:id/approve", write, h.ApproveOrder)

	grn := handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*goods_receipt.GoodsReceipt, dto.GoodsReceiptBody]{
		EntityName: "goods receipt",
		Create:     s.receipts.Create,
		Get:        s.receipts.GetByID,
		List:       s.receipts.ListReceipts,
		Cancel:     s.receipts.Cancel,
		MapBody:    dto.GoodsReceiptBody.ToGoodsReceipt,
	})
	gg := rg.Group("/grn")
	gg.GET("/list", read, grn.List)
	gg.POST("/create", write, grn.Create)
	gg.GET("/:id", read, grn.Get)
	gg.POST("/:id/cancel", write, grn.Cancel)
}

// registerMovementRoutes registers the documents that only move stock out
// of or back into a location.
func registerMovementRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *services) {
	RegisterDocumentRoutes(rg.Group("/returns"), handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*returns.Return, dto.ReturnBody]{
		EntityName: "return",
		Create:     s.returns.Create,
		Get:        s.returns.GetByID,
		List:       s.returns.ListReturns,
		MapBody:    dto.ReturnBody.ToReturn,
	}), auth.PermStockRead, auth.PermReturnsWrite)

	RegisterDocumentRoutes(rg.Group("/transfers"), handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*transfer.Transfer, dto.TransferBody]{
		EntityName: "transfer",
		Create:     s.transfers.Create,
		Get:        s.transfers.GetByID,
		List:       s.transfers.ListTransfers,
		MapBody:    dto.TransferBody.ToTransfer,
	}), auth.PermStockRead, auth.PermIssueWrite)

	RegisterDocumentRoutes(rg.Group("/consumption"), handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*consumption.Issue, dto.ConsumptionBody]{
		EntityName: "consumption issue",
		Create:     s.consumption.Create,
		Get:        s.consumption.GetByID,
		List:       s.consumption.ListIssues,
		MapBody:    dto.ConsumptionBody.ToIssue,
	}), auth.PermStockRead, auth.PermIssueWrite)
}
