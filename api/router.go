// Package api 是混合推荐的 HTTP 接口。
//
//	GET  /                                         健康检查
//	GET  /get_recommend/{user_id}/{item_id}        混合推荐（top_n, scene）
//	GET  /content_based_filter/{item_id}           内容推荐（top_n）
//	GET  /collaborative_filter/{user_id}           协同过滤推荐（top_n）
//	GET  /metrics                                  Prometheus 指标
//	POST /admin/rebuild                            重建召回数据与商品元数据
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/recall"
)

// DefaultMaxTopN 是 top_n 的默认上限。
const DefaultMaxTopN = 100

// Rebuilder 是管理接口触发的重建操作，model.Rebuilder 实现了它。
type Rebuilder interface {
	Rebuild(ctx context.Context) (model.Stats, error)
}

var _ Rebuilder = (*model.Rebuilder)(nil)

// Options 是 HTTP 接口的依赖与参数。
type Options struct {
	Recommender *hybrid.Recommender

	// Collaborative / Content 供单路推荐接口使用，为 nil 时对应接口返回 404
	Collaborative recall.Source
	Content       recall.Source

	// Rebuilder 与 AdminToken 都非空时开放 /admin/rebuild
	Rebuilder  Rebuilder
	AdminToken string

	// Gatherer 为 nil 时不开放 /metrics
	Gatherer prometheus.Gatherer

	Logger zerolog.Logger

	MaxTopN    int
	RateLimit  int // 每个 IP 每个窗口的请求数，<= 0 不限流
	RateWindow time.Duration

	// TrustProxy 为 true 时用 X-Forwarded-For / X-Real-IP 作为客户端 IP。
	// 只应在服务部署于可信反向代理之后时开启，否则客户端可以伪造来源 IP 绕过限流。
	TrustProxy bool
}

// NewRouter 创建 HTTP handler。
func NewRouter(opts Options) http.Handler {
	if opts.MaxTopN <= 0 {
		opts.MaxTopN = DefaultMaxTopN
	}
	h := &handler{
		recommender:   opts.Recommender,
		collaborative: opts.Collaborative,
		content:       opts.Content,
		rebuilder:     opts.Rebuilder,
		maxTopN:       opts.MaxTopN,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(opts.Logger))
	if opts.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(opts.RateLimit, opts.RateWindow))

		r.Get("/get_recommend/{user_id}/{item_id}", h.getRecommend)
		if opts.Content != nil {
			r.Get("/content_based_filter/{item_id}", h.contentBased)
		}
		if opts.Collaborative != nil {
			r.Get("/collaborative_filter/{user_id}", h.collaborativeBased)
		}
	})

	if opts.Rebuilder != nil && opts.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(bearerAuth(opts.AdminToken))
			r.Post("/rebuild", h.rebuild)
		})
	}
	return r
}
