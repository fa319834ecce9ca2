// Package overduescan は延滞貸出の定期スキャンジョブを提供する。
// 返却予定日を過ぎた未返却の貸出を検出し、メトリクスのゲージと
// ログに反映する。貸出データ自体は変更しない読み取り専用のジョブ。
package overduescan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// OverdueLister は基準日時点で延滞中の貸出を取得するインターフェース。
type OverdueLister interface {
	ListOverdue(ctx context.Context, today time.Time) ([]*model.Loan, error)
}

// GaugeSetter は延滞貸出数のゲージを更新するインターフェース。
type GaugeSetter interface {
	SetOverdueLoans(count int)
}

// Scanner は延滞貸出の定期スキャンジョブ。
// 冪等: 同じ状態で何回実行しても結果は変わらない。
type Scanner struct {
	loans   OverdueLister
	metrics GaugeSetter
	logger  *slog.Logger

	// Now は現在時刻を返す関数。テストで差し替えられる。
	Now func() time.Time
}

// NewScanner はScannerの新しいインスタンスを生成する。
// metricsはnilを許容する（ゲージ更新をスキップする）。
func NewScanner(loans OverdueLister, metrics GaugeSetter, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		loans:   loans,
		metrics: metrics,
		logger:  logger,
		Now:     time.Now,
	}
}

// Start は指定間隔のティッカーでスキャンを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scanner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("延滞スキャンを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("延滞スキャンの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("延滞スキャンを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("延滞スキャンの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は今日時点の延滞貸出を1回スキャンする。
// 検出した延滞件数をゲージに設定し、各延滞貸出の延滞日数をログに出力する。
func (s *Scanner) RunOnce(ctx context.Context) error {
	start := time.Now()
	today := model.DateOf(s.Now())

	overdue, err := s.loans.ListOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("延滞貸出の取得に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SetOverdueLoans(len(overdue))
	}

	for _, loan := range overdue {
		daysOverdue := int(today.Sub(loan.PlannedReturnDate).Hours() / 24)
		s.logger.Warn("延滞中の貸出を検出しました",
			slog.String("loan_id", loan.ID),
			slog.String("book_id", loan.BookID),
			slog.String("reader_id", loan.ReaderID),
			slog.String("planned_return_date", loan.PlannedReturnDate.Format("2006-01-02")),
			slog.Int("days_overdue", daysOverdue),
		)
	}

	duration := time.Since(start)
	s.logger.Info("延滞スキャンが完了しました",
		slog.Int("overdue_count", len(overdue)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
