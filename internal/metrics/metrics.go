// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(route string, duration time.Duration)
	RecordRegistration()
	RecordLogin(success bool)
	RecordPostCreated()
	RecordPostDeleted()
	RecordLikeToggled(liked bool)
	RecordCommentAdded()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	registrations  prometheus.Counter
	logins         *prometheus.CounterVec
	postsCreated   prometheus.Counter
	postsDeleted   prometheus.Counter
	likes          *prometheus.CounterVec
	comments       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minilink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minilink_http_request_duration_seconds",
			Help:    "ルート別のリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minilink_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minilink_logins_total",
			Help: "ログイン試行の合計数（結果別）",
		}, []string{"result"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minilink_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minilink_posts_deleted_total",
			Help: "削除された投稿の合計数",
		}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minilink_like_toggles_total",
			Help: "いいねトグルの合計数（方向別）",
		}, []string{"action"}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minilink_comments_added_total",
			Help: "追加されたコメントの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.registrations,
		c.logins,
		c.postsCreated,
		c.postsDeleted,
		c.likes,
		c.comments,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はルートパターン別の処理時間を記録する。
func (c *Collector) RecordRequestLatency(route string, duration time.Duration) {
	c.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin はログイン試行を結果別に記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

func (c *Collector) RecordPostDeleted() {
	c.postsDeleted.Inc()
}

// RecordLikeToggled はいいねの追加・取り消しを記録する。
func (c *Collector) RecordLikeToggled(liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	c.likes.WithLabelValues(action).Inc()
}

func (c *Collector) RecordCommentAdded() {
	c.comments.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。メトリクス不要なテストやコマンドで使用する。
type Nop struct{}

func (Nop) RecordHTTPStatus(int)                       {}
func (Nop) RecordRequestLatency(string, time.Duration) {}
func (Nop) RecordRegistration()                        {}
func (Nop) RecordLogin(bool)                           {}
func (Nop) RecordPostCreated()                         {}
func (Nop) RecordPostDeleted()                         {}
func (Nop) RecordLikeToggled(bool)                     {}
func (Nop) RecordCommentAdded()                        {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
