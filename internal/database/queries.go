package database

// Schema bootstrap, executed once at startup. All statements are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS webhook_mappings (
		id INT AUTO_INCREMENT PRIMARY KEY,
		group_id BIGINT NOT NULL,
		topic_id INT NOT NULL DEFAULT 0,
		webhook_url VARCHAR(500) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY unique_group_topic (group_id, topic_id),
		INDEX idx_group_id (group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS profile_photos (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE,
		username VARCHAR(255) NOT NULL,
		photo_filename VARCHAR(255) NOT NULL,
		photo_url VARCHAR(500) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_user_id (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS message_logs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		telegram_message_id BIGINT NOT NULL,
		group_id BIGINT NOT NULL,
		topic_id INT NOT NULL DEFAULT 0,
		user_id BIGINT NOT NULL,
		username VARCHAR(255) NOT NULL,
		content TEXT,
		media_count INT DEFAULT 0,
		forwarded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_group_id (group_id),
		INDEX idx_user_id (user_id)
	)`,
}

// Routing mapping queries
const (
	selectRoutingMappingQuery = `
		SELECT id, group_id, topic_id, webhook_url, created_at, updated_at
		FROM webhook_mappings
		WHERE group_id = ? AND topic_id = ?
	`

	selectAllRoutingMappingsQuery = `
		SELECT id, group_id, topic_id, webhook_url, created_at, updated_at
		FROM webhook_mappings
		ORDER BY group_id, topic_id
	`

	upsertRoutingMappingQuery = `
		INSERT INTO webhook_mappings (group_id, topic_id, webhook_url)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			webhook_url = VALUES(webhook_url),
			updated_at = CURRENT_TIMESTAMP
	`
)

// Sender profile queries
const (
	selectSenderProfileQuery = `
		SELECT id, user_id, username, photo_filename, photo_url, created_at, updated_at
		FROM profile_photos
		WHERE user_id = ?
	`

	upsertSenderProfileQuery = `
		INSERT INTO profile_photos (user_id, username, photo_filename, photo_url)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			username = VALUES(username),
			photo_filename = VALUES(photo_filename),
			photo_url = VALUES(photo_url),
			updated_at = CURRENT_TIMESTAMP
	`
)

// Message log queries
const (
	insertMessageLogQuery = `
		INSERT INTO message_logs (
			telegram_message_id, group_id, topic_id, user_id, username,
			content, media_count, forwarded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
)
