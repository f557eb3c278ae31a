package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-gelato-ws/internal/handler"
	"go-gelato-ws/internal/middleware"
	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/service"
	"go-gelato-ws/internal/ws"
	"go-gelato-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Product{},
		&model.Recipe{},
		&model.Ingredient{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.ProductionPlan{},
		&model.ProductionStage{},
		&model.PlanAvailabilityRecord{},
		&model.Divergence{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
	)

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub + Notifier
	wsHub := ws.NewHub()
	go wsHub.Run()
	notifier := ws.NewHubNotifier(wsHub)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	recipeRepo := repository.NewRecipeRepo(db)
	stockRepo := repository.NewStockRepo(db)
	planRepo := repository.NewPlanRepo(db)
	availRepo := repository.NewAvailabilityRecordRepo(db)
	divRepo := repository.NewDivergenceRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	resolver := service.NewRequirementResolver(recipeRepo)
	availabilityService := service.NewAvailabilityService(resolver, recipeRepo, productRepo, stockRepo, planRepo)
	planningService := service.NewPlanningService(availabilityService, recipeRepo, planRepo, notifier)
	executionService := service.NewExecutionService(resolver, recipeRepo, planRepo, stockRepo, availRepo, divRepo, notifier)
	catalogService := service.NewCatalogService(productRepo, recipeRepo, notifier)
	stockService := service.NewStockService(stockRepo, productRepo, notifier)
	dashService := service.NewDashboardService(stockRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, notifier)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	stockHandler := handler.NewStockHandler(stockService)
	productionHandler := handler.NewProductionHandler(planningService, executionService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Gelato Production v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Catalog: products and recipes
	protected.Get("/products", catalogHandler.GetProducts)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), catalogHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), catalogHandler.UpdateProduct)
	protected.Get("/recipes", catalogHandler.GetRecipes)
	protected.Get("/recipes/:id", catalogHandler.GetRecipe)
	protected.Post("/recipes", middleware.RequirePrivilege("recipe:create"), catalogHandler.CreateRecipe)
	protected.Put("/recipes/:id", middleware.RequirePrivilege("recipe:update"), catalogHandler.UpdateRecipe)

	// Stock
	protected.Get("/stock-items", middleware.RequirePrivilege("stock:view"), stockHandler.GetStockItems)
	protected.Post("/stock-items", middleware.RequirePrivilege("stock:adjust"), stockHandler.CreateStockItem)
	protected.Post("/stock-items/:id/adjust", middleware.RequirePrivilege("stock:adjust"), stockHandler.AdjustStockLevel)
	protected.Get("/stock-movements", middleware.RequirePrivilege("stock:view"), stockHandler.GetMovements)

	// Production planning and execution
	protected.Post("/production-plans/check-availability", middleware.RequirePrivilege("production:view"), productionHandler.CheckAvailability)
	protected.Get("/production-plans", middleware.RequirePrivilege("production:view"), productionHandler.GetPlans)
	protected.Get("/production-plans/:id", middleware.RequirePrivilege("production:view"), productionHandler.GetPlan)
	protected.Post("/production-plans", middleware.RequirePrivilege("production:schedule"), productionHandler.SchedulePlan)
	protected.Post("/production-plans/:id/start", middleware.RequirePrivilege("production:execute"), productionHandler.StartPlan)
	protected.Post("/production-plans/:id/complete", middleware.RequirePrivilege("production:execute"), productionHandler.CompletePlan)
	protected.Post("/production-plans/:id/cancel", middleware.RequirePrivilege("production:cancel"), productionHandler.CancelPlan)
	protected.Post("/production-plans/:id/archive", middleware.RequirePrivilege("production:cancel"), productionHandler.ArchivePlan)

	// Divergences
	protected.Get("/divergences", middleware.RequirePrivilege("divergence:view"), productionHandler.GetDivergences)
	protected.Put("/divergences/:id/resolve", middleware.RequirePrivilege("divergence:resolve"), productionHandler.ResolveDivergence)

	// User Management
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Roles & privileges
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MASTER_ADMIN gets ALL privileges
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		db.Model(&masterRole).Association("Privileges").Replace(allPrivileges)
		log.Println("MASTER_ADMIN role assigned all privileges")
	}

	// ADMIN runs day-to-day production but cannot manage users or
	// approve shortage overrides
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		excluded := map[string]bool{
			"user:create":                 true,
			"user:update":                 true,
			"user:delete":                 true,
			"user:update_privilege":       true,
			"production:confirm_shortage": true,
		}
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if !excluded[p.Code] {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		db.Model(&adminRole).Association("Privileges").Replace(adminPrivileges)
		log.Println("ADMIN role assigned limited privileges")
	}

	// 4. Create default admin user with MASTER_ADMIN role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		masterRole, roleErr := roleRepo.FindByCode(model.RoleMasterAdmin)
		if roleErr != nil {
			log.Printf("Warning: MASTER_ADMIN role not found: %v", roleErr)
			return
		}

		admin := &model.User{
			Email:       "admin@example.com",
			FullName:    "Master Administrator",
			PhoneNumber: "",
			RoleID:      &masterRole.ID,
			IsActive:    true,
			Privileges:  masterRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin@example.com / admin123 (MASTER_ADMIN)")
		}
	}
}
