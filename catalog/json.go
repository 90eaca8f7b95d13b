package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// DecodeProducts 从 JSON 数组解码商品列表，ID 为空的记录被丢弃。
func DecodeProducts(r io.Reader) ([]Product, error) {
	var raw []Product
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := raw[:0]
	for _, p := range raw {
		if p.Normalize() {
			out = append(out, p)
		}
	}
	return out, nil
}

// LoadProductsJSON 读取 JSON 商品文件。
func LoadProductsJSON(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open products file: %w", err)
	}
	defer f.Close()
	return DecodeProducts(f)
}
