package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/recall"
)

// 单路推荐接口的默认 top_n
const defaultSingleSourceTopN = 5

// contentNeighbourFactor 内容推荐接口返回 top_n 的倍数个相似商品。
const contentNeighbourFactor = 2

type handler struct {
	recommender   *hybrid.Recommender
	collaborative recall.Source
	content       recall.Source
	rebuilder     Rebuilder
	maxTopN       int
}

type hybridResponse struct {
	AnchorItemID    string   `json:"anchor_item_id"`
	Scene           string   `json:"scene"`
	Recommendations []string `json:"recommendations"`
}

type contentResponse struct {
	AnchorItemID    string   `json:"anchor_item_id"`
	Recommendations []string `json:"recommendations"`
}

type collaborativeResponse struct {
	UserID          int64    `json:"user_id"`
	Recommendations []string `json:"recommendations"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// getRecommend 处理 GET /get_recommend/{user_id}/{item_id}?top_n=10&scene=detail
func (h *handler) getRecommend(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cfg := h.recommender.Config()
	topN, err := h.parseTopN(r, cfg.DefaultTopN)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = cfg.DefaultScene
	}

	res := h.recommender.Recommend(r.Context(), hybrid.Request{
		UserID:       strconv.FormatInt(userID, 10),
		AnchorItemID: chi.URLParam(r, "item_id"),
		TopN:         topN,
		Scene:        sceneName,
	})
	respondJSON(w, r, http.StatusOK, hybridResponse{
		AnchorItemID:    res.AnchorItemID,
		Scene:           res.Scene,
		Recommendations: res.IDs(),
	})
}

// contentBased 处理 GET /content_based_filter/{item_id}?top_n=5，返回最多 2*top_n 个相似商品。
func (h *handler) contentBased(w http.ResponseWriter, r *http.Request) {
	topN, err := h.parseTopN(r, defaultSingleSourceTopN)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	itemID := chi.URLParam(r, "item_id")
	items := h.recallOrEmpty(r, h.content, &core.RecommendContext{AnchorItemID: itemID}, topN*contentNeighbourFactor)
	respondJSON(w, r, http.StatusOK, contentResponse{
		AnchorItemID:    itemID,
		Recommendations: core.ItemIDs(items),
	})
}

// collaborativeBased 处理 GET /collaborative_filter/{user_id}?top_n=5
func (h *handler) collaborativeBased(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	topN, err := h.parseTopN(r, defaultSingleSourceTopN)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rctx := &core.RecommendContext{UserID: strconv.FormatInt(userID, 10)}
	items := h.recallOrEmpty(r, h.collaborative, rctx, topN)
	respondJSON(w, r, http.StatusOK, collaborativeResponse{
		UserID:          userID,
		Recommendations: core.ItemIDs(items),
	})
}

// rebuild 处理 POST /admin/rebuild
func (h *handler) rebuild(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rebuilder.Rebuild(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrRebuildInProgress) {
			respondError(w, r, http.StatusConflict, err.Error())
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("rebuild failed")
		respondError(w, r, http.StatusInternalServerError, "rebuild failed")
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

// recallOrEmpty 调用单个候选源，失败时返回空列表，与混合推荐的降级方式一致。
func (h *handler) recallOrEmpty(r *http.Request, src recall.Source, rctx *core.RecommendContext, limit int) []*core.Item {
	items, err := src.Recall(r.Context(), rctx, limit)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("source", src.Name()).Msg("source failed")
		return nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q", s)
	}
	return id, nil
}

// parseTopN 读取 top_n，缺省时使用 def；必须在 [1, maxTopN] 内。
func (h *handler) parseTopN(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("top_n")
	if raw == "" {
		return min(def, h.maxTopN), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.maxTopN {
		return 0, fmt.Errorf("top_n must be an integer in [1, %d]", h.maxTopN)
	}
	return n, nil
}
