// Package lookup はISBNによる書誌メタデータの外部検索を提供する。
// Open LibraryのBooks APIを使用し、蔵書登録時の入力補助として
// タイトル・ページ数・出版年・著者名を取得する。
// 取得に失敗しても蔵書の手動登録は妨げない。
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode"

	"github.com/hitoshi/toshokan/internal/model"
)

// DefaultBaseURL はOpen Library APIのベースURL。
const DefaultBaseURL = "https://openlibrary.org"

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Metadata はISBN検索で取得した書誌メタデータ。
// 取得できなかったフィールドはゼロ値のまま返す。
type Metadata struct {
	ISBN            string
	Title           string
	Pages           int
	PublicationYear int
	AuthorName      string
}

// bookData はOpen Libraryの /api/books?jscmd=data レスポンスの1エントリ。
type bookData struct {
	Title         string `json:"title"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Client はOpen Libraryへの書誌メタデータ検索クライアント。
// 外部へのHTTPリクエストはすべてSSRF防止機能付きクライアントを経由する。
type Client struct {
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	baseURL     string
	timeout     time.Duration
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(ssrfGuard SSRFValidator, logger *slog.Logger, baseURL string, timeout time.Duration, maxBodySize int64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		baseURL:     baseURL,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Lookup はISBNで書誌メタデータを検索する。
// 外部APIに到達できない場合はLOOKUP_FAILED、
// ISBNに対応する書誌が存在しない場合はLOOKUP_NOT_FOUNDエラーを返す。
func (c *Client) Lookup(ctx context.Context, isbn string) (*Metadata, error) {
	if !isDigits(isbn) || len(isbn) != 13 {
		return nil, model.NewInvalidFieldError("ISBNは13桁の数字で指定してください")
	}

	requestURL := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json",
		c.baseURL, url.QueryEscape("ISBN:"+isbn))

	if err := c.ssrfGuard.ValidateURL(requestURL); err != nil {
		c.logger.Error("SSRF検証に失敗しました",
			slog.String("url", requestURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewLookupFailedError("検索先URLの検証に失敗しました")
	}

	client := c.ssrfGuard.NewSafeClient(c.timeout, c.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Toshokan/1.0 Library Catalog")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("書誌メタデータの取得に失敗しました",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()),
		)
		return nil, model.NewLookupFailedError("外部APIへの接続に失敗しました")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("書誌メタデータAPIが異常なステータスを返しました",
			slog.String("isbn", isbn),
			slog.Int("status", resp.StatusCode),
		)
		return nil, model.NewLookupFailedError(fmt.Sprintf("外部APIがステータス%dを返しました", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, model.NewLookupFailedError("レスポンスの読み取りに失敗しました")
	}

	var results map[string]bookData
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, model.NewLookupFailedError("レスポンスの解析に失敗しました")
	}

	data, ok := results["ISBN:"+isbn]
	if !ok {
		return nil, model.NewLookupNotFoundError(isbn)
	}

	meta := &Metadata{
		ISBN:            isbn,
		Title:           data.Title,
		Pages:           data.NumberOfPages,
		PublicationYear: parseYear(data.PublishDate),
	}
	if len(data.Authors) > 0 {
		meta.AuthorName = data.Authors[0].Name
	}
	return meta, nil
}

// parseYear は "May 3, 1998" や "1998" のような出版日文字列から
// 西暦年を取り出す。4桁の数字列が見つからない場合は0を返す。
func parseYear(publishDate string) int {
	runes := []rune(publishDate)
	for i := 0; i+4 <= len(runes); i++ {
		if !isDigitRange(runes[i : i+4]) {
			continue
		}
		// 5桁以上の数字列の一部は年とみなさない
		if i > 0 && unicode.IsDigit(runes[i-1]) {
			continue
		}
		if i+4 < len(runes) && unicode.IsDigit(runes[i+4]) {
			continue
		}
		year, err := strconv.Atoi(string(runes[i : i+4]))
		if err != nil {
			continue
		}
		return year
	}
	return 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isDigitRange(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
