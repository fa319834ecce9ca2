package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/toshokan/internal/middleware"
)

// HealthChecker はデータベースへの疎通確認のインターフェース。
// *sql.DB が満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler

	// 蔵書記録
	AuthorService AuthorServiceInterface
	BookService   BookServiceInterface
	ReaderService ReaderServiceInterface
	LookupService LookupServiceInterface

	// 貸出・レポート
	LoanService   LoanServiceInterface
	ReportService ReportServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Metrics → Recovery → RateLimit(General)
//
// 運用ルート（/health, /metrics）はレート制限の外に配置する。
// 更新系エンドポイントには更新系レート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(nil))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	r.Use(middleware.NewRecoveryMiddleware())

	authorHandler := NewAuthorHandler(deps.AuthorService)
	bookHandler := NewBookHandler(deps.BookService, deps.LookupService)
	readerHandler := NewReaderHandler(deps.ReaderService)
	loanHandler := NewLoanHandler(deps.LoanService)
	reportHandler := NewReportHandler(deps.ReportService)

	// --- 運用ルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		write := deps.RateLimiter.WriteMiddleware()

		// 著者管理
		r.Route("/api/authors", func(r chi.Router) {
			r.With(write).Post("/", authorHandler.Create)
			r.Get("/", authorHandler.List)
			r.Get("/statistics", reportHandler.AuthorsStatistics)
			r.Get("/top", reportHandler.TopAuthors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", authorHandler.Get)
				r.With(write).Put("/", authorHandler.Update)
				r.With(write).Delete("/", authorHandler.Delete)
			})
		})

		// 蔵書管理
		r.Route("/api/books", func(r chi.Router) {
			r.With(write).Post("/", bookHandler.Create)
			r.Get("/", bookHandler.List)
			r.Get("/available", bookHandler.ListAvailable)
			r.Get("/on-loan", bookHandler.ListOnLoan)
			r.Get("/with-status", bookHandler.ListWithStatus)
			r.Get("/recent", bookHandler.ListRecent)
			r.Get("/statistics", reportHandler.BooksStatistics)
			r.Get("/popular", reportHandler.PopularBooks)

			// 外部書誌データベースからのメタデータ検索
			r.Get("/lookup/{isbn}", bookHandler.Lookup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookHandler.Get)
				r.With(write).Put("/", bookHandler.Update)
				r.With(write).Delete("/", bookHandler.Delete)
				r.Get("/status", bookHandler.GetStatus)
				r.Get("/loans", loanHandler.ListByBook)
			})
		})

		// 利用者管理
		r.Route("/api/readers", func(r chi.Router) {
			r.With(write).Post("/", readerHandler.Create)
			r.Get("/", readerHandler.List)
			r.Get("/with-active-loans", reportHandler.ReadersWithActiveLoans)
			r.Get("/overdue", reportHandler.OverdueReaders)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", readerHandler.Get)
				r.With(write).Put("/", readerHandler.Update)
				r.With(write).Delete("/", readerHandler.Delete)
			})
		})

		// 貸出管理
		r.Route("/api/loans", func(r chi.Router) {
			// POST /api/loans - 貸出登録（更新系レート制限を追加）
			r.With(write).Post("/", loanHandler.Issue)
			r.Get("/", loanHandler.List)
			r.Get("/active", loanHandler.ListActive)
			r.Get("/overdue", loanHandler.ListOverdue)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", loanHandler.Get)
				r.With(write).Post("/return", loanHandler.Return)
			})
		})

		// レポート
		r.Route("/api/reports", func(r chi.Router) {
			r.Get("/library", reportHandler.LibraryStatistics)
		})
	})

	return r
}

// healthHandler はデータベース疎通を含むヘルスチェックのハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if checker != nil {
			if err := checker.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
