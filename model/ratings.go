package model

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// Rating 是一条用户对商品的评分。
type Rating struct {
	UserID string
	ItemID string
	Score  float64
}

// ratingColumns 是评分 CSV 的必需列。
var ratingColumns = [...]string{"user_id", "product_sys_id", "rating"}

// DecodeRatingsCSV 读取带表头的评分 CSV（user_id,product_sys_id,rating），列顺序不限。
// ID 为空或评分无法解析的行被跳过。
func DecodeRatingsCSV(r io.Reader) ([]Rating, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ratings header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, len(ratingColumns))
	for i, name := range ratingColumns {
		pos, ok := index[name]
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("ratings: missing column %q", name))
		}
		cols[i] = pos
	}

	var out []Rating
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ratings: %w", err)
		}
		userID := strings.TrimSpace(rec[cols[0]])
		itemID := strings.TrimSpace(rec[cols[1]])
		if userID == "" || itemID == "" {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[2]]), 64)
		if err != nil {
			continue
		}
		out = append(out, Rating{UserID: userID, ItemID: itemID, Score: score})
	}
	return out, nil
}

// LoadRatingsCSV 从文件读取评分。
func LoadRatingsCSV(path string) ([]Rating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ratings %s: %w", path, err)
	}
	defer f.Close()
	return DecodeRatingsCSV(f)
}

// RatingsLoader 是评分数据来源。
type RatingsLoader interface {
	LoadRatings(ctx context.Context) ([]Rating, error)
}

// RatingsFile 是基于 CSV 文件的 RatingsLoader。
type RatingsFile string

func (f RatingsFile) LoadRatings(context.Context) ([]Rating, error) {
	return LoadRatingsCSV(string(f))
}

var _ RatingsLoader = RatingsFile("")
