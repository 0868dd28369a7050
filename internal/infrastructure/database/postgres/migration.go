// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/domain/product"
	"github.com/agrovolt/backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain - Base tables
		&user.User{},
		&user.Address{},

		// Product catalog
		&product.Product{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
		&order.StatusHistory{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_orders_total_price ON orders(total_price)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_status ON order_status_history(status)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	// Create default admin user
	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	// Create test user for development
	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	// Seed catalog products
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@agrovolt.in").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
		if err != nil {
			log.Printf("❌ Failed to hash password: %v", err)
			return fmt.Errorf("failed to hash password: %w", err)
		}

		adminUser := user.User{
			Email:    "admin@agrovolt.in",
			Password: string(hashedPassword),
			Name:     "AgroVolt Admin",
			IsActive: true,
			IsAdmin:  true,
		}

		if err := m.db.Create(&adminUser).Error; err != nil {
			log.Printf("❌ Failed to create admin user: %v", err)
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("✅ Created admin user: admin@agrovolt.in (password: admin123)")
	} else {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
	}

	return nil
}

func (m *Migration) seedTestUser() error {
	log.Println("👤 Seeding test user...")

	var existing user.User
	result := m.db.Where("email = ?", "test1@agrovolt.in").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("test123"), 10)
		if err != nil {
			log.Printf("❌ Failed to hash password: %v", err)
			return fmt.Errorf("failed to hash password: %w", err)
		}

		testUser := user.User{
			Email:    "test1@agrovolt.in",
			Password: string(hashedPassword),
			Name:     "Test Farmer",
			Phone:    "9876543210",
			IsActive: true,
			IsAdmin:  false,
		}

		if err := m.db.Create(&testUser).Error; err != nil {
			return err
		}

		log.Println("✅ Created test user: test1@agrovolt.in (password: test123)")
	} else {
		log.Println("⏭️ Test user already exists")
	}

	return nil
}

// seedProducts creates the starter catalog
func (m *Migration) seedProducts() error {
	log.Println("🛍️ Seeding products...")

	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)

	if productCount > 0 {
		log.Println("⏭️ Products already exist")
		return nil
	}

	// Prices in paise
	catalog := []product.Product{
		{
			Name:        "Solar Water Pump 1HP",
			Description: "Surface solar water pump for small and medium farms. Runs directly off a 1kW panel array, delivers up to 8000 litres per hour at 20m head.",
			Category:    "irrigation",
			Image:       "/images/products/solar-pump-1hp.jpg",
			Price:       1499900, // ₹14,999
			IsActive:    true,
		},
		{
			Name:        "Drip Irrigation Controller",
			Description: "Programmable 8-zone drip irrigation controller with rain-skip and soil moisture override inputs.",
			Category:    "irrigation",
			Image:       "/images/products/drip-controller.jpg",
			Price:       549900, // ₹5,499
			IsActive:    true,
		},
		{
			Name:        "Soil Moisture Sensor Kit",
			Description: "Capacitive soil moisture probe with weatherproof housing and 10m cable. Pairs with any controller accepting 0-3V analog input.",
			Category:    "sensors",
			Image:       "/images/products/moisture-sensor.jpg",
			Price:       129900, // ₹1,299
			IsActive:    true,
		},
		{
			Name:        "Solar Fence Energizer",
			Description: "5km range solar-powered fence energizer with battery backup for livestock and crop protection.",
			Category:    "power",
			Image:       "/images/products/fence-energizer.jpg",
			Price:       849900, // ₹8,499
			IsActive:    true,
		},
		{
			Name:        "12V 100Ah Solar Battery",
			Description: "Deep-cycle lead-acid battery rated for daily solar cycling. 36-month warranty.",
			Category:    "power",
			Image:       "/images/products/solar-battery.jpg",
			Price:       1099900, // ₹10,999
			IsActive:    true,
		},
	}

	for _, prod := range catalog {
		if err := m.db.Create(&prod).Error; err != nil {
			log.Printf("⚠️ Failed to create product %s: %v", prod.Name, err)
		} else {
			log.Printf("✅ Created product: %s", prod.Name)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"order_status_history",
		"order_items",
		"orders",
		"products",
		"addresses",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
