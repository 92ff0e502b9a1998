package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database. Expects a MySQL instance
// on localhost:3306 with a 'pronto_test' schema; skips the test otherwise.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/pronto_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"order_status_history", "order_items", "orders", "coupons", "products"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	createProductsTable := `
	CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		price DECIMAL(10,2) NOT NULL,
		category VARCHAR(100) NOT NULL,
		isAvailable TINYINT(1) NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_category (category),
		INDEX idx_available (isAvailable)
	)`

	createCouponsTable := `
	CREATE TABLE IF NOT EXISTS coupons (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		kind VARCHAR(20) NOT NULL,
		value DECIMAL(10,2) NOT NULL,
		minOrderAmount DECIMAL(10,2) NOT NULL DEFAULT 0,
		maxDiscountAmount DECIMAL(10,2),
		validFrom DATETIME NOT NULL,
		validUntil DATETIME NOT NULL,
		usageLimit INT,
		usedCount INT NOT NULL DEFAULT 0,
		applicableCategories JSON NOT NULL,
		applicableProducts JSON NOT NULL,
		excludedProducts JSON NOT NULL,
		firstTimeOnly TINYINT(1) NOT NULL DEFAULT 0,
		isActive TINYINT(1) NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		orderNumber VARCHAR(20) NOT NULL UNIQUE,
		customerName VARCHAR(255) NOT NULL,
		customerPhone VARCHAR(30) NOT NULL,
		customerEmail VARCHAR(150),
		addressStreet VARCHAR(255) NOT NULL,
		addressCity VARCHAR(100) NOT NULL,
		addressState VARCHAR(100) NOT NULL,
		addressZip VARCHAR(20) NOT NULL,
		addressInstructions VARCHAR(255),
		subtotal DECIMAL(10,2) NOT NULL,
		couponCode VARCHAR(50),
		couponKind VARCHAR(20),
		couponValue DECIMAL(10,2),
		discountAmount DECIMAL(10,2),
		deliveryFee DECIMAL(10,2) NOT NULL,
		tax DECIMAL(10,2) NOT NULL,
		total DECIMAL(10,2) NOT NULL,
		status VARCHAR(20) NOT NULL,
		paymentMethod VARCHAR(50) NOT NULL,
		paymentStatus VARCHAR(20) NOT NULL,
		gatewayOrderId VARCHAR(100),
		gatewayPaymentId VARCHAR(100),
		transactionId VARCHAR(100),
		paidAt DATETIME,
		estimatedDeliveryAt DATETIME NOT NULL,
		actualDeliveredAt DATETIME,
		specialInstructions TEXT,
		version INT NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL,
		INDEX idx_status (status),
		INDEX idx_phone (customerPhone),
		INDEX idx_gateway_order (gatewayOrderId),
		INDEX idx_gateway_payment (gatewayPaymentId),
		INDEX idx_created (createdAt)
	)`

	createOrderItemsTable := `
	CREATE TABLE IF NOT EXISTS order_items (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId VARCHAR(36) NOT NULL,
		productId VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unitPrice DECIMAL(10,2) NOT NULL,
		quantity INT NOT NULL,
		lineTotal DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (orderId) REFERENCES orders(id) ON DELETE CASCADE,
		INDEX idx_order (orderId)
	)`

	createStatusHistoryTable := `
	CREATE TABLE IF NOT EXISTS order_status_history (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId VARCHAR(36) NOT NULL,
		seq INT NOT NULL,
		status VARCHAR(20) NOT NULL,
		timestamp DATETIME NOT NULL,
		note VARCHAR(255),
		FOREIGN KEY (orderId) REFERENCES orders(id) ON DELETE CASCADE,
		UNIQUE KEY uq_order_seq (orderId, seq)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"products", createProductsTable},
		{"coupons", createCouponsTable},
		{"orders", createOrdersTable},
		{"order_items", createOrderItemsTable},
		{"order_status_history", createStatusHistoryTable},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
