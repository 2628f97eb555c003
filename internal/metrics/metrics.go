// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector はアプリケーションメトリクスのPrometheusコレクター。
// サービス層からはRecorderインターフェース経由で利用する。
type Collector struct {
	registrations prometheus.Counter
	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	logouts       prometheus.Counter
	postsCreated  prometheus.Counter
	imagesStored  prometheus.Counter
	httpStatus    *prometheus.CounterVec
}

// Recorder はメトリクス記録のインターフェース。
// サービス層はこのインターフェースにのみ依存する。
type Recorder interface {
	RecordRegistration()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLogout()
	RecordPostCreated()
	RecordImageStored()
	RecordHTTPStatus(statusCode int)
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_registrations_total",
			Help: "ユーザー登録成功の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_login_failure_total",
			Help: "ログイン失敗の合計数（ユーザー不在とパスワード不一致は区別しない）",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_logouts_total",
			Help: "ログアウトの合計数",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_posts_created_total",
			Help: "作成された記事の合計数",
		}),
		imagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_images_stored_total",
			Help: "保存された画像の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.loginSuccess,
		c.loginFailure,
		c.logouts,
		c.postsCreated,
		c.imagesStored,
		c.httpStatus,
	)

	return c
}

// RecordRegistration はユーザー登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailure.Inc()
}

// RecordLogout はログアウトを記録する。
func (c *Collector) RecordLogout() {
	c.logouts.Inc()
}

// RecordPostCreated は記事作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordImageStored は画像保存を記録する。
func (c *Collector) RecordImageStored() {
	c.imagesStored.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(statusLabel(statusCode)).Inc()
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)
