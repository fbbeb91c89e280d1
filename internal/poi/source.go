package poi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Source 要素数据源：一次加载得到完整数据集
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

// FileSource 从本地 GeoJSON 文件加载
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return Parse(b)
}

// HTTPSource 通过 HTTP 拉取 GeoJSON；非 2xx 视为加载失败
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Load(ctx context.Context) (*Dataset, error) {
	b, err := FetchURL(ctx, s.Client, s.URL)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// FetchURL 读取远端资源全文；client 为空时使用带超时的默认客户端
func FetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: http status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
