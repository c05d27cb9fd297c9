package database

// Keyspace produits
const (
	productColumns = `product_id, external_id, name, description, price, quantity, brand, category_id,
		image_url, image_urls, vendor_code, characteristics, created_at, updated_at`

	selectAllProductsQuery = `SELECT ` + productColumns + ` FROM products`
	selectProductQuery     = `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	productExistsQuery     = `SELECT product_id FROM products WHERE product_id = ?`
	selectExternalIDsQuery = `SELECT product_id, external_id FROM products`

	insertProductQuery = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateProductQuery = `UPDATE products SET external_id = ?, name = ?, description = ?, price = ?, quantity = ?,
		brand = ?, category_id = ?, image_url = ?, image_urls = ?, vendor_code = ?, characteristics = ?, updated_at = ?
		WHERE product_id = ? IF EXISTS`

	updateProductCategoryQuery = `UPDATE products SET category_id = ?, updated_at = ? WHERE product_id = ? IF EXISTS`
	deleteProductQuery         = `DELETE FROM products WHERE product_id = ?`

	selectCategoriesQuery = `SELECT category_id, name, parent_id FROM categories`
	upsertCategoryQuery   = `INSERT INTO categories (category_id, name, parent_id) VALUES (?, ?, ?)`

	// import_logs: partition unique par source, created_at DESC en clustering
	insertImportLogQuery = `INSERT INTO import_logs (source, created_at, log_id, inserted, updated, deleted, skipped,
		errors, success, error_message, feed_object) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectImportLogsQuery = `SELECT log_id, inserted, updated, deleted, skipped, errors, success, error_message,
		feed_object, created_at FROM import_logs WHERE source = ? LIMIT ?`
)

// Keyspace commandes
const (
	orderColumns = `order_id, customer_name, customer_email, customer_phone, city, city_ref, delivery_branch,
		delivery_branch_ref, delivery_address, payment_method, payment_provider, total_amount, status, created_at, updated_at`

	insertOrderIfNotExistsQuery = `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`
	selectOrderQuery            = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
	selectAllOrdersQuery        = `SELECT ` + orderColumns + ` FROM orders`
	updateOrderStatusQuery      = `UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF EXISTS`

	insertOrderItemQuery = `INSERT INTO order_items (order_id, item_id, product_id, product_name, unit_price, quantity, price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectOrderItemsQuery = `SELECT item_id, product_id, product_name, unit_price, quantity, price FROM order_items WHERE order_id = ?`

	upsertPaymentSessionQuery = `INSERT INTO payment_sessions (order_id, customer, items, total_amount, provider, status,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectPaymentSessionQuery = `SELECT customer, items, total_amount, provider, status, created_at, updated_at
		FROM payment_sessions WHERE order_id = ?`
	updatePaymentSessionStatusQuery = `UPDATE payment_sessions SET status = ?, updated_at = ? WHERE order_id = ? IF EXISTS`

	insertCartEventQuery = `INSERT INTO cart_clearing_events (order_id, created_at) VALUES (?, ?) USING TTL 86400`
	selectCartEventQuery = `SELECT created_at FROM cart_clearing_events WHERE order_id = ?`
)
