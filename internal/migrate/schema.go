package migrate

import (
	"database/sql"

	"poi-dashboard/internal/logger"
)

// 背景：首次运行自动创建兴趣点表与索引，保障导入与加载
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var schema = []string{
	`CREATE TABLE IF NOT EXISTS _poi_places (
		id BIGSERIAL PRIMARY KEY,
		source_id TEXT NOT NULL DEFAULT '',
		lng DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		category TEXT NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS idx_poi_places_category ON _poi_places(category)`,
	`CREATE INDEX IF NOT EXISTS idx_poi_places_lng_lat ON _poi_places(lng, lat)`,
}

func EnsureSchema(db *sql.DB) error {
	for i, s := range schema {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
