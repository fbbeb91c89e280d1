package boundary

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"poi-dashboard/internal/poi"
)

// DefaultFileNames 各层级默认文件名
var DefaultFileNames = map[Level]string{
	Adm0: "irq_admbnda_adm0_cso_itos_20190603.geojson",
	Adm1: "irq_admbnda_adm1_cso_20190603.geojson",
	Adm2: "irq_admbnda_adm2_cso_20190603.geojson",
	Adm3: "irq_admbnda_adm3_cso_20190603.geojson",
}

// Source 按层级取回边界 GeoJSON 原文
type Source interface {
	Fetch(ctx context.Context, level Level) ([]byte, error)
}

func fileName(names map[Level]string, level Level) (string, error) {
	if names == nil {
		names = DefaultFileNames
	}
	n, ok := names[level]
	if !ok {
		return "", fmt.Errorf("%w: no file mapping for %q", ErrUnknownLevel, level)
	}
	return n, nil
}

// DirSource 从本地目录读取；Names 为空时使用 DefaultFileNames
type DirSource struct {
	Dir   string
	Names map[Level]string
}

func (s DirSource) Fetch(ctx context.Context, level Level) ([]byte, error) {
	n, err := fileName(s.Names, level)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(s.Dir, n)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

// HTTPSource 从 BaseURL/<文件名> 拉取
type HTTPSource struct {
	BaseURL string
	Names   map[Level]string
	Client  *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context, level Level) ([]byte, error) {
	n, err := fileName(s.Names, level)
	if err != nil {
		return nil, err
	}
	return poi.FetchURL(ctx, s.Client, strings.TrimRight(s.BaseURL, "/")+"/"+n)
}
