// 包 store: 提供与 PostgreSQL 的数据访问层，承载兴趣点数据集的读写
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/poi"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

// 文档注释：从 _poi_places 读取完整数据集，实现 poi.Source
// 背景：生产环境数据量较大，放在数据库中便于增量维护；服务启动时一次性读入内存，此后所有空间查询都在内存完成。
// 约束：按 id 升序读取保证要素序号稳定；坐标越界或表为空时返回与文件数据源相同的错误。
func (s *Store) Load(ctx context.Context) (*poi.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT lng, lat, category, properties FROM _poi_places ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query _poi_places: %w", err)
	}
	defer rows.Close()
	var fs []*poi.Feature
	for rows.Next() {
		var (
			lng, lat float64
			category string
			raw      []byte
		)
		if err := rows.Scan(&lng, &lat, &category, &raw); err != nil {
			return nil, err
		}
		if !geo.ValidLngLat(lng, lat) {
			return nil, fmt.Errorf("row %d: %w", len(fs), poi.ErrCoordinateRange)
		}
		props := geojson.Properties{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &props); err != nil {
				return nil, fmt.Errorf("row %d properties: %w", len(fs), err)
			}
		}
		fs = append(fs, &poi.Feature{
			Coordinates: orb.Point{lng, lat},
			Category:    poi.NormalizeCategory(category),
			Properties:  props,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, poi.ErrEmptyCollection
	}
	logger.L().Debug("db_features_loaded", "count", len(fs))
	return poi.NewDataset(fs), nil
}

// Count: 当前行数
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _poi_places").Scan(&n)
	return n, err
}

// 文档注释：批量写入要素
// 背景：导入工具在单个事务内写入，失败时整体回滚，不留下半批数据。
// 约束：replace 为真时先清空表；source_id 取 properties.id（若存在）。
func (s *Store) InsertFeatures(ctx context.Context, fs []*poi.Feature, replace bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM _poi_places"); err != nil {
			return 0, err
		}
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO _poi_places(source_id, lng, lat, category, properties) VALUES($1,$2,$3,$4,$5)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, f := range fs {
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return 0, fmt.Errorf("feature %d properties: %w", i, err)
		}
		sourceID, _ := f.Properties["id"].(string)
		if _, err := stmt.ExecContext(ctx, sourceID, f.Lng(), f.Lat(), f.Category, props); err != nil {
			return 0, fmt.Errorf("insert feature %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Info("db_features_inserted", "count", len(fs), "replace", replace)
	return len(fs), nil
}
